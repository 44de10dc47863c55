// Package lint checks a configuration against the library it documents and
// the pages generated from it.
package lint

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/render"
	"git.home.luguber.info/inful/refdocs/internal/resolve"
)

// Linter resolves sections and inspects the result.
type Linter struct {
	lib    resolve.Namespacer
	logger *slog.Logger
}

// New returns a Linter reading from lib.
func New(lib resolve.Namespacer, logger *slog.Logger) *Linter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linter{lib: lib, logger: logger}
}

// Lint resolves every section and reports undocumented symbols and the
// source files each section draws from. Resolution failures are returned as
// errors, not issues.
func (l *Linter) Lint(ctx context.Context, spec *config.Spec) (*Result, error) {
	resolutions, err := resolve.New(l.lib, l.logger).ResolveAll(ctx, spec)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, res := range resolutions {
		summary := SectionSummary{Name: res.Section.Name, Symbols: len(res.Symbols)}
		files := make(map[string]bool)
		for _, sym := range res.Symbols {
			if sym.File != "" {
				files[sym.File] = true
			}
			if sym.DocText != "" {
				continue
			}
			summary.Undocumented = append(summary.Undocumented, sym.QualifiedName)
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityWarning,
				Rule:     RuleUndocumented,
				Section:  res.Section.Name,
				Symbol:   sym.QualifiedName,
				File:     sym.File,
				Line:     sym.Line,
				Message:  "symbol has no documentation",
			})
		}
		for f := range files {
			summary.SourceFiles = append(summary.SourceFiles, f)
		}
		sort.Strings(summary.SourceFiles)
		result.Sections = append(result.Sections, summary)
		l.logger.Debug("Linted section",
			logfields.Section(summary.Name),
			logfields.Count(summary.Symbols),
			slog.Int("undocumented", len(summary.Undocumented)))
	}
	return result, nil
}

// CheckPages verifies the fingerprint of every generated page under baseDir.
// External directories are not owned by the generator and are skipped. A
// missing baseDir means nothing was generated yet.
func (l *Linter) CheckPages(result *Result, baseDir string, dirs config.DirSet) error {
	err := filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(baseDir, p)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && dirs.Lookup(rel).External {
				return filepath.SkipDir
			}
			return nil
		}
		if path.Ext(rel) != plan.PageExtension {
			return nil
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		result.PagesChecked++
		ok, verr := render.VerifyFingerprint(content)
		switch {
		case errors.Is(verr, render.ErrNoFingerprint):
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityError,
				Rule:     RuleFingerprint,
				File:     rel,
				Message:  "page has no fingerprint; it was not written by refdocs",
			})
		case verr != nil:
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityError,
				Rule:     RuleFingerprint,
				File:     rel,
				Message:  "unreadable frontmatter: " + verr.Error(),
			})
		case !ok:
			result.Issues = append(result.Issues, Issue{
				Severity: SeverityError,
				Rule:     RuleFingerprint,
				File:     rel,
				Message:  "page was edited after generation; edits are lost on the next run",
			})
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("No generated pages to check", logfields.Directory(baseDir))
		return nil
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to check generated pages").
			WithContext("path", baseDir).
			Build()
	}
	return nil
}
