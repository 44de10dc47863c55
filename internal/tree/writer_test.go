package tree

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/resolve"
)

var echoRenderer = RendererFunc(func(_ context.Context, page plan.Page, pc PageContext) (string, error) {
	if page.IsIndex() {
		var links []string
		for _, e := range pc.Entries {
			links = append(links, e.Link)
		}
		return "# " + pc.SectionTitle + "\n" + strings.Join(links, ",") + "\n", nil
	}
	return "# " + page.Symbol.QualifiedName + "\n", nil
})

func sectionPlan(t *testing.T, name, dir, slug string, names ...string) plan.SectionPlan {
	t.Helper()
	sec := config.SectionSpec{Name: name, DirName: dir, Title: name + " title", SlugPrefix: slug, Layout: config.LayoutDirectory}
	res := &resolve.Resolution{Section: sec}
	for _, n := range names {
		res.Symbols = append(res.Symbols, resolve.ResolvedSymbol{Name: n, QualifiedName: "mylib." + n, OwnerSection: name})
	}
	sp, err := plan.Build(res, "README.md")
	require.NoError(t, err)
	return sp
}

func mkfile(t *testing.T, p, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(data)
}

func TestWriteDistinctSectionsNoCollision(t *testing.T) {
	out := t.TempDir()
	run := NewRun(out, "ref")
	w := NewWriter(echoRenderer, config.NewDirSet(nil, nil))

	report, err := w.Write(context.Background(), run, []plan.SectionPlan{
		sectionPlan(t, "A", "alpha", "", "foo", "bar"),
		sectionPlan(t, "B", "beta", "", "foo"),
	})
	require.NoError(t, err)
	assert.Empty(t, report.Collisions)
	assert.NoError(t, report.CollisionErr())
	assert.Equal(t, []string{"alpha/README.md", "alpha/foo.md", "alpha/bar.md", "beta/README.md", "beta/foo.md"}, report.PagesWritten)

	assert.Equal(t, "# mylib.foo\n", readFile(t, filepath.Join(out, "ref", "alpha", "foo.md")))
	assert.Equal(t, "# mylib.foo\n", readFile(t, filepath.Join(out, "ref", "beta", "foo.md")))
	assert.Equal(t, "# A title\nfoo.md,bar.md\n", readFile(t, filepath.Join(out, "ref", "alpha", "README.md")))

	info, err := os.Stat(filepath.Join(out, "ref", "alpha", "foo.md"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	assert.NotEmpty(t, run.ID)
}

func TestWriteReportsCollisionsAndSkipsThem(t *testing.T) {
	out := t.TempDir()
	run := NewRun(out, "ref")
	w := NewWriter(echoRenderer, config.NewDirSet(nil, nil))

	report, err := w.Write(context.Background(), run, []plan.SectionPlan{
		sectionPlan(t, "A", "same", "p.", "baz", "qux"),
		sectionPlan(t, "B", "same", "p.", "baz"),
	})
	require.NoError(t, err)

	require.Len(t, report.Collisions, 2, "shared index page and baz")
	var baz *PathCollisionError
	for _, c := range report.Collisions {
		if c.Path == "same/p/baz.md" {
			baz = c
		}
	}
	require.NotNil(t, baz)
	assert.Equal(t, []Claimant{{Section: "A", Symbol: "mylib.baz"}, {Section: "B", Symbol: "mylib.baz"}}, baz.Claimants)
	assert.True(t, ferrors.HasCategory(report.CollisionErr(), ferrors.CategoryCollision))

	assert.NoFileExists(t, filepath.Join(out, "ref", "same", "p", "baz.md"))
	assert.FileExists(t, filepath.Join(out, "ref", "same", "p", "qux.md"))
	assert.Contains(t, baz.Error(), "A:mylib.baz, B:mylib.baz")
}

func TestWritePurgesStaleButKeepsExternal(t *testing.T) {
	out := t.TempDir()
	base := filepath.Join(out, "ref")
	mkfile(t, filepath.Join(base, "alpha", "removed.md"), "stale")
	mkfile(t, filepath.Join(base, "old", "x.md"), "stale")
	mkfile(t, filepath.Join(base, "stray.md"), "stale")
	mkfile(t, filepath.Join(base, "cli", "README.md"), "external")
	mkfile(t, filepath.Join(base, "modules", "nested-cli", "run.md"), "external nested")
	mkfile(t, filepath.Join(base, "modules", "gone.md"), "stale")

	run := NewRun(out, "ref")
	dirs := config.NewDirSet([]string{"cli"}, []string{"cli", "modules/nested-cli"})
	w := NewWriter(echoRenderer, dirs)

	report, err := w.Write(context.Background(), run, []plan.SectionPlan{sectionPlan(t, "A", "alpha", "", "foo")})
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(base, "alpha", "removed.md"))
	assert.NoDirExists(t, filepath.Join(base, "old"))
	assert.NoFileExists(t, filepath.Join(base, "stray.md"))
	assert.NoFileExists(t, filepath.Join(base, "modules", "gone.md"))
	assert.Equal(t, "external", readFile(t, filepath.Join(base, "cli", "README.md")))
	assert.Equal(t, "external nested", readFile(t, filepath.Join(base, "modules", "nested-cli", "run.md")))

	assert.Equal(t, []string{"alpha", "old"}, report.PurgedDirs)
	assert.ElementsMatch(t, []string{"cli", "modules/nested-cli"}, report.ExternalDirs)
}

func TestWritePageIntoExternalDirectoryCollides(t *testing.T) {
	out := t.TempDir()
	run := NewRun(out, "ref")
	w := NewWriter(echoRenderer, config.NewDirSet(nil, []string{"cli"}))

	report, err := w.Write(context.Background(), run, []plan.SectionPlan{sectionPlan(t, "A", "cli", "", "foo")})
	require.NoError(t, err)
	require.Len(t, report.Collisions, 2)
	assert.Equal(t, "external:cli", report.Collisions[0].Claimants[0].Section)
	assert.Empty(t, report.PagesWritten)
}

func TestWriteRecordsRenderFailures(t *testing.T) {
	out := t.TempDir()
	run := NewRun(out, "ref")
	failing := RendererFunc(func(ctx context.Context, page plan.Page, pc PageContext) (string, error) {
		if page.Symbol != nil && page.Symbol.Name == "broken" {
			return "", errors.New("bad doc")
		}
		return echoRenderer(ctx, page, pc)
	})
	w := NewWriter(failing, config.NewDirSet(nil, nil))

	report, err := w.Write(context.Background(), run, []plan.SectionPlan{sectionPlan(t, "A", "alpha", "", "ok", "broken")})
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	f := report.Failed[0]
	assert.Equal(t, "alpha/broken.md", f.Path)
	assert.Equal(t, "mylib.broken", f.Symbol)
	assert.True(t, ferrors.HasCategory(f.Err, ferrors.CategoryRender))
	assert.Contains(t, f.Message, "mylib.broken")
	assert.FileExists(t, filepath.Join(out, "ref", "alpha", "ok.md"))
	assert.NoFileExists(t, filepath.Join(out, "ref", "alpha", "broken.md"))
}

func TestRegenerationRemovesDroppedElement(t *testing.T) {
	out := t.TempDir()
	w := NewWriter(echoRenderer, config.NewDirSet(nil, nil))

	_, err := w.Write(context.Background(), NewRun(out, "ref"), []plan.SectionPlan{sectionPlan(t, "A", "alpha", "", "foo", "bar")})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "ref", "alpha", "bar.md"))

	_, err = w.Write(context.Background(), NewRun(out, "ref"), []plan.SectionPlan{sectionPlan(t, "A", "alpha", "", "foo")})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(out, "ref", "alpha", "bar.md"))
	assert.FileExists(t, filepath.Join(out, "ref", "alpha", "foo.md"))
}

func TestWriteHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWriter(echoRenderer, config.NewDirSet(nil, nil))
	_, err := w.Write(ctx, NewRun(t.TempDir(), "ref"), []plan.SectionPlan{sectionPlan(t, "A", "alpha", "", "foo")})
	require.ErrorIs(t, err, context.Canceled)
}
