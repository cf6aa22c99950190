package commands

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/docweave/internal/events"
	"git.home.luguber.info/inful/docweave/internal/gitsource"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/observability"
)

// BuildCmd renders a root document and then materializes every dynamic panel
// source discovered during the render as a standalone fragment file, so the
// rewritten dynamic-panel src attributes have something to load.
type BuildCmd struct {
	File   string `arg:"" help:"Root document, relative to the source root"`
	Output string `short:"o" help:"Output directory" default:""`
	Repo   string `help:"Git repository URL to fetch sources from instead of the local tree"`
}

func (b *BuildCmd) Run(g *Global) error {
	svc, err := newService(g.ConfigPath)
	if err != nil {
		return err
	}
	defer svc.close()

	outDir := b.Output
	if outDir == "" {
		outDir = svc.cfg.Output.Directory
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	rootFile := b.File
	repoURL := b.Repo
	if repoURL == "" {
		repoURL = svc.cfg.Source.GitURL
	}
	if repoURL != "" {
		srcRoot, err := gitsource.Fetch(g.Context, "", repoURL, svc.cfg.Source.Branch, svc.cfg.Source.Dir)
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(filepath.Dir(srcRoot)) }()
		rootFile = filepath.Join(srcRoot, b.File)
	}

	started := time.Now()
	res, err := svc.proc.RenderFile(g.Context, rootFile)
	svc.recordRun(g.Context, rootFile, "render", started, res, err)
	if err != nil {
		return err
	}
	logWarnings(res)

	rootOut := filepath.Join(outDir, trimExt(filepath.Base(rootFile))+".html")
	if err := os.WriteFile(rootOut, []byte(res.Output), 0o644); err != nil {
		return err
	}
	observability.InfoContext(g.Context, "Wrote rendered document", logfields.Path(rootOut))

	// Materialize each dynamic source once, even when it was included twice.
	seen := map[string]bool{}
	for _, src := range res.DynamicSources {
		path, _, _ := strings.Cut(src, "#")
		if seen[path] || isRemote(path) {
			continue
		}
		seen[path] = true

		started := time.Now()
		fragRes, err := svc.proc.IncludeFile(g.Context, path)
		svc.recordRun(g.Context, path, "include", started, fragRes, err)
		if err != nil {
			return err
		}
		logWarnings(fragRes)

		fragOut := filepath.Join(outDir, trimExt(filepath.Base(path))+svc.cfg.Output.FragmentSuffix)
		if err := os.WriteFile(fragOut, []byte(fragRes.Output), 0o644); err != nil {
			return err
		}
		observability.InfoContext(g.Context, "Wrote dynamic fragment", logfields.Path(fragOut))
	}

	if pubErr := svc.publisher.RenderCompleted(events.RenderCompleted{
		RunID:          res.RunID,
		RootFile:       rootFile,
		DynamicSources: res.DynamicSources,
		WarningCount:   len(res.Warnings),
		CompletedAt:    time.Now(),
	}); pubErr != nil {
		observability.WarnContext(g.Context, "Event publish failed", logfields.Error(pubErr))
	}

	return nil
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func isRemote(src string) bool {
	return strings.Contains(src, "://")
}
