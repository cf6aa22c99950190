package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docweave/internal/config"
	"git.home.luguber.info/inful/docweave/internal/events"
	"git.home.luguber.info/inful/docweave/internal/flatten"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/metrics"
	"git.home.luguber.info/inful/docweave/internal/state"
)

// Global state shared by all subcommands.
type Global struct {
	Context    context.Context
	ConfigPath string
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docweave.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render  RenderCmd  `cmd:"" help:"Flatten and fully render a document to HTML"`
	Include IncludeCmd `cmd:"" help:"Flatten a document without rendering Markdown"`
	Build   BuildCmd   `cmd:"" help:"Render a document and materialize its dynamic panel fragments"`
	Preview PreviewCmd `cmd:"" help:"Serve a continuously re-rendered document over HTTP"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// service bundles the wired collaborators one command invocation uses.
type service struct {
	cfg       *config.Config
	proc      *flatten.Processor
	registry  *prom.Registry
	store     *state.Store
	publisher events.Publisher
}

// newService loads configuration and wires the processor plus the optional
// operational collaborators (metrics, run history, event publishing).
func newService(configPath string) (*service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	proc, err := flatten.NewProcessor(flatten.Options{
		Markdown:       markdown.Options{Extensions: cfg.Markdown.Extensions},
		FragmentSuffix: cfg.Output.FragmentSuffix,
		Recorder:       recorder,
	})
	if err != nil {
		return nil, err
	}

	svc := &service{cfg: cfg, proc: proc, registry: registry, publisher: events.NoopPublisher{}}

	if cfg.State.Path != "" {
		store, err := state.Open(cfg.State.Path)
		if err != nil {
			return nil, err
		}
		svc.store = store
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return nil, err
		}
		svc.publisher = pub
	}

	return svc, nil
}

func (s *service) close() {
	s.publisher.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("Failed to close state store", logfields.Error(err))
		}
	}
}

// recordRun persists the outcome of one operation when a store is configured.
func (s *service) recordRun(ctx context.Context, root, mode string, started time.Time, res *flatten.Result, runErr error) {
	if s.store == nil {
		return
	}
	run := state.Run{
		RootFile:  root,
		Mode:      mode,
		StartedAt: started,
	}
	if res != nil {
		run.ID = res.RunID
		run.DurationMS = res.Duration.Milliseconds()
		run.DynamicCount = len(res.DynamicSources)
		run.WarningCount = len(res.Warnings)
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if run.ID == "" {
		run.ID = started.UTC().Format("20060102T150405.000000000")
	}
	if err := s.store.Record(ctx, run); err != nil {
		slog.Warn("Failed to record run", logfields.Error(err))
	}
}

// logWarnings surfaces resolution warnings on the CLI.
func logWarnings(res *flatten.Result) {
	for _, w := range res.Warnings {
		slog.Warn("Resolution warning", slog.String("warning", w.String()))
	}
}
