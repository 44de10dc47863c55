package commands

import (
	"context"
	"fmt"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/generate"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
	"git.home.luguber.info/inful/refdocs/internal/metrics"
	"git.home.luguber.info/inful/refdocs/internal/notify"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Output      string `short:"o" help:"Output root; the configured dirname is created below it" default:"docs" env:"REFDOCS_OUTPUT"`
	Template    string `help:"Manifest template, overriding the configured one" type:"existingfile"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in textfile format after the run"`
	CheckLinks  bool   `name:"check-links" help:"Fail when the manifest or a page links to a missing local file"`
	NATSURL     string `name:"nats-url" help:"Publish the run report to this NATS server" env:"REFDOCS_NATS_URL"`
	Subject     string `help:"NATS subject for run reports" default:"refdocs.runs"`
}

func (g *GenerateCmd) options(root *CLI) generate.Options {
	return generate.Options{
		ConfigPath: root.Config,
		OutputRoot: g.Output,
		Template:   g.Template,
		CheckLinks: g.CheckLinks,
	}
}

// Run executes one generation and prints its summary.
func (g *GenerateCmd) Run(ctx context.Context, globals *Global, root *CLI) error {
	svcOpts := []generate.Option{generate.WithLogger(globals.Logger)}
	var recorder *metrics.PrometheusRecorder
	if g.MetricsFile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		svcOpts = append(svcOpts, generate.WithRecorder(recorder))
	}

	if g.NATSURL != "" {
		pub, err := notify.Connect(g.NATSURL, g.Subject, globals.Logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		svcOpts = append(svcOpts, generate.WithNotifier(pub))
	}

	result, err := generate.NewService(svcOpts...).Run(ctx, g.options(root))
	if result != nil {
		_, _ = fmt.Fprintln(globals.Out, Summary(result))
	}

	if recorder != nil {
		if werr := recorder.WriteTextfile(g.MetricsFile); werr != nil {
			if err != nil {
				globals.Logger.Warn("Failed to write metrics file", logfields.Path(g.MetricsFile), logfields.Error(werr))
				return err
			}
			return ferrors.WrapError(werr, ferrors.CategoryFileSystem, "failed to write metrics file").
				WithContext("path", g.MetricsFile).
				Build()
		}
	}
	return err
}
