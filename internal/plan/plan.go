// Package plan computes where every resolved symbol is written.
//
// A section's layout selects a destination Strategy. Path collisions are not
// checked here; the tree writer reports them across all sections at once.
package plan

import (
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/library"
	"git.home.luguber.info/inful/refdocs/internal/resolve"
)

// PageExtension is appended to every generated page.
const PageExtension = ".md"

// Page is one output file. Symbol is nil for index pages.
type Page struct {
	Section string
	Slug    string
	Path    string
	Title   string
	Symbol  *resolve.ResolvedSymbol
}

// IsIndex reports whether the page is a section index page.
func (p Page) IsIndex() bool { return p.Symbol == nil }

// SectionPlan is the ordered list of pages of one section. Paths are
// slash-separated and relative to the base directory.
type SectionPlan struct {
	Section        config.SectionSpec
	DestinationDir string
	Description    string
	Index          *Page
	Pages          []Page
}

// AllPages returns the index page, when present, followed by the symbol pages.
func (p SectionPlan) AllPages() []Page {
	if p.Index == nil {
		return p.Pages
	}
	return append([]Page{*p.Index}, p.Pages...)
}

// Strategy computes page destinations for one layout.
type Strategy interface {
	// Dir is the section's own directory, empty when it has none.
	Dir(sec config.SectionSpec) string
	// Destination returns the page path for sym.
	Destination(sec config.SectionSpec, sym resolve.ResolvedSymbol) (string, error)
}

// StrategyFor returns the destination strategy for a layout.
func StrategyFor(layout config.Layout) Strategy {
	if layout == config.LayoutFlat {
		return FlatStrategy{}
	}
	return DirectoryStrategy{}
}

// DirectoryStrategy writes `dirname/<slug with dots as directories>.md`.
type DirectoryStrategy struct{}

func (DirectoryStrategy) Dir(sec config.SectionSpec) string { return sec.DirName }

func (DirectoryStrategy) Destination(sec config.SectionSpec, sym resolve.ResolvedSymbol) (string, error) {
	parts := append(strings.Split(sec.DirName, "/"), SplitSlug(Slug(sec.SlugPrefix, sym.Name))...)
	p, err := joinComponents(parts...)
	if err != nil {
		return "", err
	}
	return p + PageExtension, nil
}

// FlatStrategy keeps the dotted slug as the file name and places it in the
// directory named by the element hint, or by the symbol's namespace when no
// hint is given. A module symbol defaults to its own package directory.
type FlatStrategy struct{}

func (FlatStrategy) Dir(sec config.SectionSpec) string { return sec.DirName }

func (FlatStrategy) Destination(sec config.SectionSpec, sym resolve.ResolvedSymbol) (string, error) {
	var parts []string
	if sec.DirName != "" {
		parts = append(parts, strings.Split(sec.DirName, "/")...)
	}
	switch {
	case sym.Hint != "":
		parts = append(parts, dotsToDirs(sym.Hint)...)
	case sym.Kind == library.KindModule:
		parts = append(parts, dotsToDirs(library.JoinPath(sym.Namespace, sym.Name))...)
	default:
		parts = append(parts, dotsToDirs(sym.Namespace)...)
	}
	parts = append(parts, Slug(sec.SlugPrefix, sym.Name)+PageExtension)
	return joinComponents(parts...)
}

// Build lays out one resolved section. indexPage names the per-directory
// index file; it is only produced for directory sections.
func Build(res *resolve.Resolution, indexPage string) (SectionPlan, error) {
	sec := res.Section
	strategy := StrategyFor(sec.Layout)
	sp := SectionPlan{
		Section:        sec,
		DestinationDir: strategy.Dir(sec),
		Description:    res.Description,
		Pages:          make([]Page, 0, len(res.Symbols)),
	}

	if sec.Layout == config.LayoutDirectory && indexPage != "" {
		p, err := joinComponents(append(strings.Split(sec.DirName, "/"), indexPage)...)
		if err != nil {
			return SectionPlan{}, pathError(sec.Name, indexPage, err)
		}
		sp.Index = &Page{Section: sec.Name, Path: p, Title: sec.Title}
	}

	for i := range res.Symbols {
		sym := res.Symbols[i]
		dest, err := strategy.Destination(sec, sym)
		if err != nil {
			return SectionPlan{}, pathError(sec.Name, sym.Name, err)
		}
		sp.Pages = append(sp.Pages, Page{
			Section: sec.Name,
			Slug:    Slug(sec.SlugPrefix, sym.Name),
			Path:    dest,
			Title:   strings.TrimSuffix(path.Base(dest), PageExtension),
			Symbol:  &sym,
		})
	}
	return sp, nil
}

// BuildAll lays out every section in order. When several directory sections
// share a dirname only the first one declaring it owns the index page.
func BuildAll(resolutions []*resolve.Resolution, indexPage string) ([]SectionPlan, error) {
	out := make([]SectionPlan, 0, len(resolutions))
	indexed := make(map[string]bool)
	for _, res := range resolutions {
		sp, err := Build(res, indexPage)
		if err != nil {
			return nil, err
		}
		if sp.Index != nil {
			if indexed[sp.Index.Path] {
				sp.Index = nil
			} else {
				indexed[sp.Index.Path] = true
			}
		}
		out = append(out, sp)
	}
	foldIntoIndex(out, indexPage)
	return out, nil
}

// foldIntoIndex moves a page `x.md` that sits next to a planned directory
// `x/` to `x/<indexPage>`, so a namespace and its members form one entry.
// Pages whose target is already claimed stay where they are.
func foldIntoIndex(plans []SectionPlan, indexPage string) {
	if indexPage == "" {
		return
	}
	dirs := make(map[string]bool)
	claimed := make(map[string]bool)
	for _, sp := range plans {
		for _, page := range sp.AllPages() {
			claimed[page.Path] = true
			for d := path.Dir(page.Path); d != "." && d != ""; d = path.Dir(d) {
				dirs[d] = true
			}
		}
	}
	for i := range plans {
		for j := range plans[i].Pages {
			page := &plans[i].Pages[j]
			stem := strings.TrimSuffix(page.Path, PageExtension)
			if !dirs[stem] {
				continue
			}
			target := path.Join(stem, indexPage)
			if claimed[target] {
				continue
			}
			delete(claimed, page.Path)
			claimed[target] = true
			page.Path = target
		}
	}
}

func pathError(section, name string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryValidation, fmt.Sprintf("cannot compute destination for %q", name)).
		Fatal().
		WithContext("section", section).
		WithContext("symbol", name).
		Build()
}
