package lint

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/library"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/render"
	"git.home.luguber.info/inful/refdocs/internal/resolve"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

func openLibrary(t *testing.T) *library.Library {
	t.Helper()
	root := t.TempDir()
	src := `// Package mylib stores things.
package mylib

// Open opens a store.
func Open() {}

func Close() {}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "mylib.go"), []byte(src), 0o600))
	lib, err := library.Open(root, "mylib")
	require.NoError(t, err)
	return lib
}

func spec(elements ...config.Element) *config.Spec {
	return &config.Spec{
		Global: config.Global{DirName: "ref", IndexPage: config.DefaultIndexPage},
		Sections: []config.SectionSpec{{
			Name:         "CORE",
			DirName:      "core",
			BaseElements: elements,
			Layout:       config.LayoutDirectory,
		}},
	}
}

func TestLintReportsUndocumentedSymbols(t *testing.T) {
	l := New(openLibrary(t), nil)
	res, err := l.Lint(context.Background(), spec(config.Element{Name: "Open"}, config.Element{Name: "Close"}))
	require.NoError(t, err)

	require.Len(t, res.Sections, 1)
	assert.Equal(t, []string{"mylib.go"}, res.Sections[0].SourceFiles)
	assert.Equal(t, []string{"mylib.Close"}, res.Sections[0].Undocumented)

	require.Len(t, res.Issues, 1)
	assert.Equal(t, RuleUndocumented, res.Issues[0].Rule)
	assert.False(t, res.Failed(false))
	assert.True(t, res.Failed(true))
}

func TestLintFailsOnMissingSymbol(t *testing.T) {
	_, err := New(openLibrary(t), nil).Lint(context.Background(), spec(config.Element{Name: "Gone"}))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestCheckPages(t *testing.T) {
	base := t.TempDir()
	page := plan.Page{
		Section: "CORE",
		Path:    "core/Open.md",
		Title:   "Open",
		Symbol:  &resolve.ResolvedSymbol{Name: "Open", QualifiedName: "mylib.Open", Kind: library.KindFunction},
	}
	text, err := render.NewMarkdown().Render(context.Background(), page, tree.PageContext{Section: "CORE"})
	require.NoError(t, err)

	write := func(rel, content string) {
		p := filepath.Join(base, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	write("core/Open.md", text)
	write("core/Edited.md", text+"hand edit\n")
	write("core/Plain.md", "# plain\n")
	write("cli/README.md", "# external, never checked\n")

	l := New(nil, nil)
	res := &Result{}
	require.NoError(t, l.CheckPages(res, base, config.NewDirSet(nil, []string{"cli"})))
	assert.Equal(t, 3, res.PagesChecked)
	assert.Equal(t, 2, res.Count(SeverityError))
	assert.True(t, res.Failed(false))

	empty := &Result{}
	require.NoError(t, l.CheckPages(empty, filepath.Join(base, "missing"), nil))
	assert.Zero(t, empty.PagesChecked)
}

func TestFormatters(t *testing.T) {
	res := &Result{
		Sections: []SectionSummary{{Name: "CORE", Symbols: 2, Undocumented: []string{"mylib.Close"}, SourceFiles: []string{"mylib.go"}}},
		Issues: []Issue{
			{Severity: SeverityWarning, Rule: RuleUndocumented, Symbol: "mylib.Close", File: "mylib.go", Line: 7, Message: "symbol has no documentation"},
			{Severity: SeverityError, Rule: RuleFingerprint, File: "core/Edited.md", Message: "edited"},
		},
		PagesChecked: 3,
	}

	var text bytes.Buffer
	f, err := FormatterFor("text")
	require.NoError(t, err)
	require.NoError(t, f.Format(&text, res))
	assert.Contains(t, text.String(), "CORE: 2 symbols, 1 undocumented\n  mylib.go\n")
	assert.Contains(t, text.String(), "WARNING [undocumented-symbol] mylib.Close: symbol has no documentation (mylib.go:7)\n")
	assert.Contains(t, text.String(), "ERROR   [page-fingerprint] core/Edited.md: edited\n")
	assert.Contains(t, text.String(), "3 pages checked, 1 errors, 1 warnings\n")

	var js bytes.Buffer
	f, err = FormatterFor("json")
	require.NoError(t, err)
	require.NoError(t, f.Format(&js, res))
	assert.Contains(t, js.String(), `"rule": "page-fingerprint"`)

	_, err = FormatterFor("xml")
	require.Error(t, err)
}
