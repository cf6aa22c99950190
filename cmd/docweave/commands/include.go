package commands

import "time"

// IncludeCmd flattens one document without rendering Markdown, leaving
// splice-only output suitable for a later render pass.
type IncludeCmd struct {
	File   string `arg:"" help:"Root document (.md or .html)"`
	Output string `short:"o" help:"Output file (stdout when omitted)"`
}

func (r *IncludeCmd) Run(g *Global) error {
	svc, err := newService(g.ConfigPath)
	if err != nil {
		return err
	}
	defer svc.close()

	started := time.Now()
	res, err := svc.proc.IncludeFile(g.Context, r.File)
	svc.recordRun(g.Context, r.File, "include", started, res, err)
	if err != nil {
		return err
	}
	logWarnings(res)

	return writeOutput(r.Output, res.Output)
}
