package sidebar

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/markdown"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

// TemplateData is passed to a manifest template.
type TemplateData struct {
	// Autodoc is the generated nested list.
	Autodoc string
	Tree    []*tree.Node
}

// Markup renders the tree as a nested Markdown list, two spaces of
// indentation per level.
func Markup(t *Tree) string {
	var b strings.Builder
	var write func(nodes []*tree.Node, depth int)
	write = func(nodes []*tree.Node, depth int) {
		for _, n := range nodes {
			fmt.Fprintf(&b, "%s* [%s](%s)\n", strings.Repeat("  ", depth), n.Title, markdown.Destination(Link(n)))
			write(n.Children, depth+1)
		}
	}
	write(t.Roots, 0)
	return b.String()
}

// Link returns the link target of a node, relative to the output root.
// Directories without an index page link to the directory itself.
func Link(n *tree.Node) string {
	if n.Leaf || n.Index {
		return n.Path + plan.PageExtension
	}
	return n.Path + "/"
}

// LoadTemplate reads and parses the manifest template at path. An empty path
// means no template and yields nil.
func LoadTemplate(path string) (*template.Template, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read manifest template").
			Fatal().
			WithContext("path", path).
			Build()
	}
	tmpl, err := ParseTemplate(string(data))
	if err != nil {
		if classified, ok := ferrors.AsClassified(err); ok {
			return nil, classified.WithContext("path", path)
		}
		return nil, err
	}
	return tmpl, nil
}

// ParseTemplate parses manifest template text. Templates fail on unknown keys.
func ParseTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("manifest").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid manifest template").Fatal().Build()
	}
	return tmpl, nil
}

// Render produces the manifest text. A nil template yields the nested list
// alone.
func Render(t *Tree, tmpl *template.Template) (string, error) {
	data := TemplateData{Autodoc: strings.TrimSuffix(Markup(t), "\n"), Tree: t.Roots}
	if tmpl == nil {
		return data.Autodoc + "\n", nil
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryConfig, "failed to execute manifest template").Fatal().Build()
	}
	return b.String(), nil
}
