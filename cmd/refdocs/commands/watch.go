package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/generate"
	"git.home.luguber.info/inful/refdocs/internal/notify"
	"git.home.luguber.info/inful/refdocs/internal/watch"
)

// WatchCmd implements the 'watch' command. It shares the generate flags.
type WatchCmd struct {
	Output     string        `short:"o" help:"Output root; the configured dirname is created below it" default:"docs" env:"REFDOCS_OUTPUT"`
	Template   string        `help:"Manifest template, overriding the configured one" type:"existingfile"`
	CheckLinks bool          `name:"check-links" help:"Fail a run when the manifest or a page links to a missing local file"`
	Debounce   time.Duration `help:"Quiet period after the last change before regenerating" default:"500ms"`
	Interval   time.Duration `help:"Also regenerate on this interval; 0 disables" default:"0s"`
	NATSURL    string        `name:"nats-url" help:"Publish each run report to this NATS server" env:"REFDOCS_NATS_URL"`
	Subject    string        `help:"NATS subject for run reports" default:"refdocs.runs"`
}

// Run regenerates once, then again after every debounced change, until
// interrupted. The library root and template are taken from the
// configuration at startup.
func (w *WatchCmd) Run(ctx context.Context, globals *Global, root *CLI) error {
	spec, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	gen := GenerateCmd{Output: w.Output, Template: w.Template, CheckLinks: w.CheckLinks}
	svcOpts := []generate.Option{generate.WithLogger(globals.Logger)}
	if w.NATSURL != "" {
		pub, err := notify.Connect(w.NATSURL, w.Subject, globals.Logger)
		if err != nil {
			return err
		}
		defer pub.Close()
		svcOpts = append(svcOpts, generate.WithNotifier(pub))
	}
	svc := generate.NewService(svcOpts...)
	run := func(ctx context.Context) error {
		result, err := svc.Run(ctx, gen.options(root))
		if result != nil {
			_, _ = fmt.Fprintln(globals.Out, Summary(result))
		}
		return err
	}

	template := w.Template
	if template == "" {
		template = spec.Global.Template
	}
	watcher, err := watch.New(
		[]string{root.Config, template},
		[]string{spec.Global.LibraryRoot},
		run,
		watch.WithDebounce(w.Debounce),
		watch.WithInterval(w.Interval),
		watch.WithLogger(globals.Logger),
	)
	if err != nil {
		return err
	}
	return watcher.Run(ctx)
}
