package commands

import (
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/library"
	"git.home.luguber.info/inful/refdocs/internal/lint"
)

// LintCmd implements the 'lint' command.
type LintCmd struct {
	Strict bool   `help:"Treat undocumented symbols as failures"`
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
	Output string `short:"o" help:"Output root whose generated pages are checked against their fingerprints" env:"REFDOCS_OUTPUT"`
}

// Run resolves every section, reports what it finds and fails when the
// result does.
func (l *LintCmd) Run(ctx context.Context, globals *Global, root *CLI) error {
	formatter, err := lint.FormatterFor(l.Format)
	if err != nil {
		return err
	}

	spec, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	lib, err := library.Open(spec.Global.LibraryRoot, spec.Global.LibraryName, library.WithLogger(globals.Logger))
	if err != nil {
		return err
	}

	linter := lint.New(lib, globals.Logger)
	result, err := linter.Lint(ctx, spec)
	if err != nil {
		return err
	}
	if l.Output != "" {
		baseDir := filepath.Join(l.Output, filepath.FromSlash(spec.Global.DirName))
		if err := linter.CheckPages(result, baseDir, spec.Dirs); err != nil {
			return err
		}
	}

	if err := formatter.Format(globals.Out, result); err != nil {
		return ferrors.InternalError("failed to write lint report").WithCause(err).Build()
	}

	if result.Failed(l.Strict) {
		return ferrors.ValidationError("lint found problems").
			Fatal().
			WithContext("errors", result.Count(lint.SeverityError)).
			WithContext("warnings", result.Count(lint.SeverityWarning)).
			WithContext("strict", l.Strict).
			Build()
	}
	return nil
}
