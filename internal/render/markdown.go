// Package render is the default page renderer: Markdown with a fingerprinted
// YAML frontmatter.
package render

import (
	"context"
	"fmt"
	"go/doc/comment"
	"strings"

	"git.home.luguber.info/inful/refdocs/internal/git"
	"git.home.luguber.info/inful/refdocs/internal/library"
	"git.home.luguber.info/inful/refdocs/internal/markdown"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/resolve"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

// Frontmatter keys written to every page.
const (
	FieldTitle         = "title"
	FieldKind          = "kind"
	FieldQualifiedName = "qualified_name"
	FieldSection       = "section"
)

// KindIndex is the kind recorded for section index pages.
const KindIndex = "index"

// Source locates the revision pages link to.
type Source struct {
	// Repository is the browse URL prefix, e.g. https://example.com/org/lib/blob.
	Repository string
	// Prefix overrides the library's path inside the repository.
	Prefix   string
	Revision git.Revision
}

// Markdown renders resolved symbols and section indexes.
type Markdown struct {
	source Source
}

// Option configures a Markdown renderer.
type Option func(*Markdown)

// WithSource enables "View source" links.
func WithSource(src Source) Option {
	return func(m *Markdown) { m.source = src }
}

// NewMarkdown returns the default renderer.
func NewMarkdown(opts ...Option) *Markdown {
	m := &Markdown{}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ tree.Renderer = (*Markdown)(nil)

// Render implements tree.Renderer.
func (m *Markdown) Render(ctx context.Context, page plan.Page, pc tree.PageContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if page.IsIndex() {
		return m.renderIndex(page, pc)
	}
	return m.renderSymbol(page, pc)
}

func (m *Markdown) renderSymbol(page plan.Page, pc tree.PageContext) (string, error) {
	sym := page.Symbol
	if sym.Kind == "" {
		return "", fmt.Errorf("symbol %s has no kind", sym.QualifiedName)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", page.Title)

	if sym.Signature != "" {
		fmt.Fprintf(&b, "\n```go\n%s\n```\n", sym.Signature)
	}
	if doc := docMarkdown(sym.DocText); doc != "" {
		b.WriteString("\n")
		b.WriteString(doc)
	}
	if sym.Kind == library.KindModule && len(sym.Members) > 0 {
		b.WriteString("\n## Members\n\n")
		for _, member := range sym.Members {
			fmt.Fprintf(&b, "* `%s`\n", member)
		}
	}
	if link := m.sourceLink(sym); link != "" {
		fmt.Fprintf(&b, "\n[View source](%s)\n", link)
	}

	fields := map[string]any{
		FieldTitle:         page.Title,
		FieldKind:          string(sym.Kind),
		FieldQualifiedName: sym.QualifiedName,
		FieldSection:       pc.Section,
	}
	return withFingerprint(fields, b.String())
}

func (m *Markdown) renderIndex(page plan.Page, pc tree.PageContext) (string, error) {
	title := pc.SectionTitle
	if title == "" {
		title = pc.Section
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	if doc := docMarkdown(pc.Description); doc != "" {
		b.WriteString("\n")
		b.WriteString(doc)
	}
	if len(pc.Entries) > 0 {
		b.WriteString("\n")
		for _, e := range pc.Entries {
			fmt.Fprintf(&b, "* [%s](%s)\n", e.Title, markdown.Destination(e.Link))
		}
	}

	fields := map[string]any{
		FieldTitle:   title,
		FieldKind:    KindIndex,
		FieldSection: page.Section,
	}
	return withFingerprint(fields, b.String())
}

func (m *Markdown) sourceLink(sym *resolve.ResolvedSymbol) string {
	if sym.File == "" {
		return ""
	}
	rev := m.source.Revision
	if m.source.Prefix != "" {
		rev.Subdir = strings.Trim(m.source.Prefix, "/")
	}
	return git.SourceURL(m.source.Repository, rev, sym.File, sym.Line)
}

// docMarkdown converts Go doc comment text to Markdown.
func docMarkdown(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	var p comment.Parser
	d := p.Parse(text)
	pr := comment.Printer{HeadingLevel: 2}
	return string(pr.Markdown(d))
}
