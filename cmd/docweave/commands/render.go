package commands

import (
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/docweave/internal/events"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/observability"
)

// RenderCmd fully renders one document.
type RenderCmd struct {
	File   string `arg:"" help:"Root document (.md or .html)"`
	Output string `short:"o" help:"Output file (stdout when omitted)"`
}

func (r *RenderCmd) Run(g *Global) error {
	svc, err := newService(g.ConfigPath)
	if err != nil {
		return err
	}
	defer svc.close()

	started := time.Now()
	res, err := svc.proc.RenderFile(g.Context, r.File)
	svc.recordRun(g.Context, r.File, "render", started, res, err)
	if err != nil {
		return err
	}
	logWarnings(res)

	if pubErr := svc.publisher.RenderCompleted(events.RenderCompleted{
		RunID:          res.RunID,
		RootFile:       r.File,
		DynamicSources: res.DynamicSources,
		WarningCount:   len(res.Warnings),
		CompletedAt:    time.Now(),
	}); pubErr != nil {
		observability.WarnContext(g.Context, "Event publish failed", logfields.Error(pubErr))
	}

	return writeOutput(r.Output, res.Output)
}

func writeOutput(path, content string) error {
	if path == "" {
		fmt.Println(content)
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
