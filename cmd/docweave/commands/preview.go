package commands

import (
	"time"

	"git.home.luguber.info/inful/docweave/internal/preview"
)

// PreviewCmd serves a continuously re-rendered document.
type PreviewCmd struct {
	File     string        `arg:"" help:"Root document (.md or .html)"`
	Address  string        `short:"a" help:"Listen address (overrides config)"`
	NoWatch  bool          `help:"Disable file watching"`
	Interval time.Duration `help:"Periodic rebuild interval (overrides config)"`
}

func (p *PreviewCmd) Run(g *Global) error {
	svc, err := newService(g.ConfigPath)
	if err != nil {
		return err
	}
	defer svc.close()

	addr := svc.cfg.Preview.Address
	if p.Address != "" {
		addr = p.Address
	}
	interval := svc.cfg.Preview.RebuildIntervalDuration()
	if p.Interval > 0 {
		interval = p.Interval
	}

	server := preview.New(svc.proc, preview.Options{
		RootFile:        p.File,
		Address:         addr,
		Watch:           !p.NoWatch,
		RebuildInterval: interval,
		Registry:        svc.registry,
		Store:           svc.store,
	})
	return server.Run(g.Context)
}
