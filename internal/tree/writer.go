// Package tree writes planned pages to disk.
//
// Before anything is written every destination path is checked for
// collisions, then the base directory is purged of everything that is not
// marked external. Pages are rendered one by one; a render failure is
// recorded and the remaining pages are still written.
package tree

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
	"git.home.luguber.info/inful/refdocs/internal/plan"
)

const (
	dirMode  fs.FileMode = 0o755
	fileMode fs.FileMode = 0o644
)

// IndexEntry is a link from an index page to one of its section's pages.
type IndexEntry struct {
	Title string
	Link  string
}

// PageContext is what a renderer knows about the page being rendered.
type PageContext struct {
	Section      string
	SectionTitle string
	Description  string
	Path         string
	Entries      []IndexEntry
}

// Renderer produces the markdown text of one page.
type Renderer interface {
	Render(ctx context.Context, page plan.Page, pc PageContext) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, page plan.Page, pc PageContext) (string, error)

func (f RendererFunc) Render(ctx context.Context, page plan.Page, pc PageContext) (string, error) {
	return f(ctx, page, pc)
}

// WriteReport summarizes a Write call.
type WriteReport struct {
	PagesWritten []string              `json:"pages_written"`
	Failed       []PageFailure         `json:"failed,omitempty"`
	Collisions   []*PathCollisionError `json:"collisions,omitempty"`
	PurgedDirs   []string              `json:"purged_dirs,omitempty"`
	ExternalDirs []string              `json:"external_dirs,omitempty"`
}

// CollisionErr joins every collision, nil when there are none.
func (r *WriteReport) CollisionErr() error {
	errs := make([]error, len(r.Collisions))
	for i, c := range r.Collisions {
		errs[i] = c
	}
	return errors.Join(errs...)
}

// Writer persists section plans under a run's base directory.
type Writer struct {
	renderer Renderer
	dirs     config.DirSet
	logger   *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the writer's logger.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) { w.logger = logger }
}

// NewWriter returns a Writer rendering pages with r. dirs carries the skip
// and external attributes of directories under the base directory.
func NewWriter(r Renderer, dirs config.DirSet, opts ...WriterOption) *Writer {
	w := &Writer{
		renderer: r,
		dirs:     dirs,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write detects collisions, purges the base directory and writes every
// non-colliding page. The returned error is non-nil only for failures that
// stop the run (filesystem errors, cancellation); collisions and render
// failures are reported in the WriteReport.
func (w *Writer) Write(ctx context.Context, run *Run, plans []plan.SectionPlan) (*WriteReport, error) {
	report := &WriteReport{}
	base := run.BaseDir()

	report.Collisions = w.collisions(plans)
	blocked := make(map[string]bool, len(report.Collisions))
	for _, c := range report.Collisions {
		blocked[c.Path] = true
		w.logger.Error("Path collision",
			logfields.Path(c.Path),
			logfields.Count(len(c.Claimants)),
			logfields.Error(c))
	}

	if err := os.MkdirAll(base, dirMode); err != nil {
		return report, fsError("failed to create base directory", base, err)
	}
	if err := w.purge(base, "", report); err != nil {
		return report, err
	}
	sort.Strings(report.PurgedDirs)

	for _, sp := range plans {
		pc := PageContext{
			Section:      sp.Section.Name,
			SectionTitle: sp.Section.Title,
			Description:  sp.Description,
		}
		for _, page := range sp.AllPages() {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if blocked[page.Path] {
				continue
			}
			pc.Path = page.Path
			pc.Entries = nil
			if page.IsIndex() {
				pc.Entries = indexEntries(sp, page.Path)
			}
			if err := w.writePage(ctx, base, page, pc, report); err != nil {
				return report, err
			}
		}
	}

	w.logger.Info("Wrote reference tree",
		logfields.Directory(base),
		logfields.Count(len(report.PagesWritten)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("collisions", len(report.Collisions)),
		slog.Int("purged", len(report.PurgedDirs)))
	return report, nil
}

func (w *Writer) writePage(ctx context.Context, base string, page plan.Page, pc PageContext, report *WriteReport) error {
	name := page.Section + " (index)"
	if page.Symbol != nil {
		name = page.Symbol.QualifiedName
	}

	text, err := w.renderer.Render(ctx, page, pc)
	if err != nil {
		rerr := RenderError(name, page.Path, err)
		f := PageFailure{Path: page.Path, Section: page.Section, Message: rerr.Error(), Err: rerr}
		if page.Symbol != nil {
			f.Symbol = page.Symbol.QualifiedName
		}
		report.Failed = append(report.Failed, f)
		w.logger.Warn("Page render failed",
			logfields.Section(page.Section),
			logfields.Symbol(name),
			logfields.Path(page.Path),
			logfields.Error(err))
		return nil
	}

	dest := filepath.Join(base, filepath.FromSlash(page.Path))
	if err := os.MkdirAll(filepath.Dir(dest), dirMode); err != nil {
		return fsError("failed to create page directory", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, []byte(text), fileMode); err != nil {
		return fsError("failed to write page", dest, err)
	}
	report.PagesWritten = append(report.PagesWritten, page.Path)
	w.logger.Debug("Wrote page", logfields.Section(page.Section), logfields.Symbol(name), logfields.Path(page.Path))
	return nil
}

// collisions groups pages by destination. Pages inside an external
// directory collide with the external content they would overwrite.
func (w *Writer) collisions(plans []plan.SectionPlan) []*PathCollisionError {
	claims := make(map[string][]Claimant)
	var order []string
	for _, sp := range plans {
		for _, page := range sp.AllPages() {
			c := Claimant{Section: page.Section}
			if page.Symbol != nil {
				c.Symbol = page.Symbol.QualifiedName
			}
			if _, seen := claims[page.Path]; !seen {
				order = append(order, page.Path)
				if ext := w.externalOwner(page.Path); ext != "" {
					claims[page.Path] = []Claimant{{Section: "external:" + ext}}
				}
			}
			claims[page.Path] = append(claims[page.Path], c)
		}
	}

	var out []*PathCollisionError
	for _, p := range order {
		if cs := claims[p]; len(cs) > 1 {
			out = append(out, &PathCollisionError{Path: p, Claimants: cs})
		}
	}
	return out
}

// externalOwner returns the external directory containing rel, if any.
func (w *Writer) externalOwner(rel string) string {
	for _, ext := range w.dirs.External() {
		if rel == ext || strings.HasPrefix(rel, ext+"/") {
			return ext
		}
	}
	return ""
}

// purge removes everything under dir except external directories. A
// directory holding a nested external directory is descended into rather
// than removed.
func (w *Writer) purge(base, rel string, report *WriteReport) error {
	dir := filepath.Join(base, filepath.FromSlash(rel))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fsError("failed to list directory for purge", dir, err)
	}
	for _, e := range entries {
		childRel := path.Join(rel, e.Name())
		if e.IsDir() {
			attrs := w.dirs.Lookup(childRel)
			if !attrs.Purgeable() {
				report.ExternalDirs = append(report.ExternalDirs, childRel)
				w.logger.Debug("Preserving external directory",
					logfields.Directory(childRel),
					slog.Bool("skipped", attrs.Skipped))
				continue
			}
			if w.holdsExternal(childRel) {
				if err := w.purge(base, childRel, report); err != nil {
					return err
				}
				continue
			}
		}
		target := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(target); err != nil {
			return fsError("failed to purge stale output", target, err)
		}
		if e.IsDir() {
			report.PurgedDirs = append(report.PurgedDirs, childRel)
		}
		w.logger.Debug("Purged stale output", logfields.Path(childRel))
	}
	return nil
}

func (w *Writer) holdsExternal(rel string) bool {
	for _, ext := range w.dirs.External() {
		if strings.HasPrefix(ext, rel+"/") {
			return true
		}
	}
	return false
}

func indexEntries(sp plan.SectionPlan, indexPath string) []IndexEntry {
	dir := path.Dir(indexPath)
	entries := make([]IndexEntry, 0, len(sp.Pages))
	for _, p := range sp.Pages {
		link := strings.TrimPrefix(p.Path, dir+"/")
		entries = append(entries, IndexEntry{Title: p.Symbol.Name, Link: link})
	}
	return entries
}

func fsError(message, p string, err error) error {
	return ferrors.FileSystemError(message).
		WithCause(err).
		WithContext("path", p).
		Build()
}
