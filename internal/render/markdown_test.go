package render

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refdocs/internal/frontmatter"
	"git.home.luguber.info/inful/refdocs/internal/git"
	"git.home.luguber.info/inful/refdocs/internal/library"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/resolve"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

func symbolPage() plan.Page {
	return plan.Page{
		Section: "CORE",
		Path:    "core/mylib/Open.md",
		Title:   "Open",
		Symbol: &resolve.ResolvedSymbol{
			Name:          "Open",
			QualifiedName: "mylib.Open",
			Kind:          library.KindFunction,
			DocText:       "Open opens a database.\n\nIt never blocks.",
			Signature:     "func Open(path string) (*DB, error)",
			File:          "db.go",
			Line:          12,
		},
	}
}

func TestRenderSymbolPage(t *testing.T) {
	r := NewMarkdown(WithSource(Source{
		Repository: "https://example.com/org/mylib/blob",
		Revision:   git.Revision{Commit: "abc123"},
	}))

	out, err := r.Render(context.Background(), symbolPage(), tree.PageContext{Section: "CORE"})
	require.NoError(t, err)

	header, body, had, err := frontmatter.Split([]byte(out))
	require.NoError(t, err)
	require.True(t, had)

	fields, err := frontmatter.Parse(header)
	require.NoError(t, err)
	assert.Equal(t, "Open", fields[FieldTitle])
	assert.Equal(t, "function", fields[FieldKind])
	assert.Equal(t, "mylib.Open", fields[FieldQualifiedName])
	assert.Equal(t, "CORE", fields[FieldSection])
	assert.NotEmpty(t, fields["fingerprint"])

	text := string(body)
	assert.True(t, strings.HasPrefix(text, "# Open\n"))
	assert.Contains(t, text, "```go\nfunc Open(path string) (*DB, error)\n```\n")
	assert.Contains(t, text, "Open opens a database.\n\nIt never blocks.\n")
	assert.Contains(t, text, "[View source](https://example.com/org/mylib/blob/abc123/db.go#L12)")
}

func TestRenderIsDeterministic(t *testing.T) {
	r := NewMarkdown()
	a, err := r.Render(context.Background(), symbolPage(), tree.PageContext{Section: "CORE"})
	require.NoError(t, err)
	b, err := r.Render(context.Background(), symbolPage(), tree.PageContext{Section: "CORE"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotContains(t, a, "View source")
}

func TestRenderModuleMembers(t *testing.T) {
	page := plan.Page{
		Section: "CORE",
		Path:    "core/apis.md",
		Title:   "apis",
		Symbol: &resolve.ResolvedSymbol{
			Name:          "apis",
			QualifiedName: "mylib.apis",
			Kind:          library.KindModule,
			Members:       []string{"Client", "public"},
		},
	}
	out, err := NewMarkdown().Render(context.Background(), page, tree.PageContext{Section: "CORE"})
	require.NoError(t, err)
	assert.Contains(t, out, "## Members\n\n* `Client`\n* `public`\n")
}

func TestRenderIndexPage(t *testing.T) {
	page := plan.Page{Section: "CORE", Path: "core/README.md", Title: "README"}
	pc := tree.PageContext{
		Section:      "CORE",
		SectionTitle: "Core API",
		Description:  "Package mylib stores things.",
		Entries: []tree.IndexEntry{
			{Title: "Open", Link: "mylib/Open.md"},
		},
	}
	out, err := NewMarkdown().Render(context.Background(), page, pc)
	require.NoError(t, err)

	_, body, _, err := frontmatter.Split([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "# Core API\n\nPackage mylib stores things.\n\n* [Open](mylib/Open.md)\n", string(body))
	assert.Contains(t, out, "kind: index\n")
}

func TestRenderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMarkdown().Render(ctx, symbolPage(), tree.PageContext{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerifyFingerprint(t *testing.T) {
	out, err := NewMarkdown().Render(context.Background(), symbolPage(), tree.PageContext{Section: "CORE"})
	require.NoError(t, err)

	ok, err := VerifyFingerprint([]byte(out))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyFingerprint([]byte(out + "edited by hand\n"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyFingerprint([]byte("# no frontmatter\n"))
	require.ErrorIs(t, err, ErrNoFingerprint)
}
