package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/refdocs/cmd/refdocs/commands"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("refdocs"),
		kong.Description("Generate a Markdown API reference tree and its navigation manifest from a Go library."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	kctx.BindTo(ctx, (*context.Context)(nil))

	logger := slog.Default()
	err = kctx.Run(&commands.Global{Logger: logger, Out: os.Stdout})
	stop()

	ferrors.NewCLIErrorAdapter(cli.Verbose, logger).HandleError(err)
}
