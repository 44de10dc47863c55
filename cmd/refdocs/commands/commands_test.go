package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/generate"
	"git.home.luguber.info/inful/refdocs/internal/manifest"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	cli := &CLI{}
	parser, err := kong.New(cli, kong.Name("refdocs"), kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return cli, kctx
}

func testGlobal() (*Global, *bytes.Buffer) {
	var out bytes.Buffer
	return &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Out: &out}, &out
}

// writeProject lays out a small library and a configuration file referencing
// it, returning the configuration path.
func writeProject(t *testing.T, elements string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"lib/doc.go": "// Package mylib stores things.\npackage mylib\n",
		"lib/mylib.go": `package mylib

// Open opens a store.
func Open(path string) error { return nil }

func Undocumented() {}
`,
		"refdocs.yaml": fmt.Sprintf(`
global:
  dirname: ref
  library_root: lib
  library_name: mylib

sections:
  names: [CORE]

CORE:
  dirname: core
  title: Core API
  slug: ""
  elements: %s
  add_from: ""
  add_elements: ""
  module_doc_from: self
`, elements),
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return filepath.Join(dir, "refdocs.yaml")
}

func TestParseGenerateFlags(t *testing.T) {
	cli, kctx := parse(t, "-c", "cfg.hcl", "generate", "-o", "out", "--check-links", "--metrics-file", "m.prom")
	assert.Equal(t, "generate", kctx.Command())
	assert.Equal(t, "cfg.hcl", cli.Config)
	assert.Equal(t, "out", cli.Generate.Output)
	assert.True(t, cli.Generate.CheckLinks)
	assert.Equal(t, "m.prom", cli.Generate.MetricsFile)
}

func TestParseDefaultsAndEnvironment(t *testing.T) {
	t.Setenv("REFDOCS_OUTPUT", "from-env")
	cli, _ := parse(t, "watch")
	assert.Equal(t, "refdocs.yaml", cli.Config)
	assert.Equal(t, "from-env", cli.Watch.Output)
	assert.Equal(t, 500*time.Millisecond, cli.Watch.Debounce)
	assert.Equal(t, "text", cli.LogFormat)
}

func TestParseRejectsUnknownLintFormat(t *testing.T) {
	parser, err := kong.New(&CLI{}, kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	require.NoError(t, err)
	_, err = parser.Parse([]string{"lint", "--format", "xml"})
	require.Error(t, err)
}

func TestNewLoggerHonorsLevelEnvironment(t *testing.T) {
	t.Setenv("REFDOCS_LOG_LEVEL", "warn")
	var buf bytes.Buffer
	logger := NewLogger(&buf, false, "json")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	NewLogger(&buf, true, "text").Debug("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestInitWritesOnceWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdocs.yaml")
	root := &CLI{Config: path}
	g, out := testGlobal()

	require.NoError(t, (&InitCmd{}).Run(g, root))
	assert.Contains(t, out.String(), path)
	assert.FileExists(t, path)

	err := (&InitCmd{}).Run(g, root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	require.NoError(t, (&InitCmd{Force: true}).Run(g, root))
}

func TestGenerateWritesTreeAndMetrics(t *testing.T) {
	cfg := writeProject(t, "Open")
	outDir := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "refdocs.prom")
	g, out := testGlobal()

	cmd := &GenerateCmd{Output: outDir, MetricsFile: metricsFile}
	require.NoError(t, cmd.Run(context.Background(), g, &CLI{Config: cfg}))

	assert.FileExists(t, filepath.Join(outDir, "ref", "core", "Open.md"))
	assert.FileExists(t, filepath.Join(outDir, "SUMMARY.md"))
	assert.FileExists(t, filepath.Join(outDir, manifest.ReportFile))
	assert.Contains(t, out.String(), "success")

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refdocs_run_outcomes_total")
}

func TestGenerateMissingSymbolIsNotFound(t *testing.T) {
	cfg := writeProject(t, "Open, Missing")
	outDir := t.TempDir()
	g, _ := testGlobal()

	err := (&GenerateCmd{Output: outDir}).Run(context.Background(), g, &CLI{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, 4, ferrors.NewCLIErrorAdapter(false, g.Logger).ExitCodeFor(err))
	assert.NoDirExists(t, filepath.Join(outDir, "ref"))
}

func TestLintStrictFailsOnUndocumented(t *testing.T) {
	cfg := writeProject(t, "Open, Undocumented")
	g, out := testGlobal()

	require.NoError(t, (&LintCmd{Format: "text"}).Run(context.Background(), g, &CLI{Config: cfg}))
	assert.Contains(t, out.String(), "Undocumented")

	err := (&LintCmd{Format: "json", Strict: true}).Run(context.Background(), g, &CLI{Config: cfg})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestLintChecksGeneratedPages(t *testing.T) {
	cfg := writeProject(t, "Open")
	outDir := t.TempDir()
	g, _ := testGlobal()
	require.NoError(t, (&GenerateCmd{Output: outDir}).Run(context.Background(), g, &CLI{Config: cfg}))

	lintCmd := &LintCmd{Format: "text", Output: outDir}
	require.NoError(t, lintCmd.Run(context.Background(), g, &CLI{Config: cfg}))

	page := filepath.Join(outDir, "ref", "core", "Open.md")
	data, err := os.ReadFile(page)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(page, append(data, []byte("edited\n")...), 0o600))

	err = lintCmd.Run(context.Background(), g, &CLI{Config: cfg})
	require.Error(t, err)
}

func TestSummaryListsFailures(t *testing.T) {
	out := Summary(&generate.Result{
		Status: manifest.StatusPartial,
		RunID:  "run-1",
		Write: &tree.WriteReport{
			PagesWritten: []string{"core/Open.md"},
			Failed:       []tree.PageFailure{{Path: "core/Close.md", Message: "boom"}},
		},
		ManifestPath: "out/SUMMARY.md",
	})
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "core/Close.md: boom")
	assert.Contains(t, out, "out/SUMMARY.md")
}
