package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docweave/cmd/docweave/commands"
)

var version = "dev"

func main() {
	// Best effort: a local .env provides DOCWEAVE_* overrides.
	_ = godotenv.Load()

	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("docweave"),
		kong.Description("Assemble include-linked Markdown and HTML sources into a single flattened document."),
		kong.Vars{"version": version},
	)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := ctx.Run(&commands.Global{Context: runCtx, ConfigPath: cli.Config})
	ctx.FatalIfErrorf(err)
}
