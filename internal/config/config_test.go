package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
)

const validYAML = `
global:
  dirname: ref
  library_root: ./lib
  library_name: mylib

directory_titles:
  core: Core API

skip:
  - cli
external: [cli, generated]

sections:
  names: ALPHA, BETA

ALPHA:
  dirname: alpha
  title: Alpha
  slug: "a\\."
  elements: foo, bar
  add_from: plugins
  add_elements: Plug
  module_doc_from: self

BETA:
  dirname:
  title: ""
  slug: ""
  elements: Exporter@integrations.export
  add_from: ""
  add_elements: ""
  module_doc_from: ""
`

func TestParseYAML(t *testing.T) {
	spec, err := Parse([]byte(validYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "ref", spec.Global.DirName)
	assert.Equal(t, "./lib", spec.Global.LibraryRoot)
	assert.Equal(t, DefaultManifestFile, spec.Global.Manifest)
	assert.Equal(t, DefaultIndexPage, spec.Global.IndexPage)

	assert.Equal(t, "Core API", spec.Title("core"))
	assert.Equal(t, "unknown", spec.Title("unknown"))
	assert.Equal(t, "Core API", spec.Title("nested/core"))
	assert.Equal(t, "leaf", spec.Title("nested/leaf"))

	assert.Equal(t, DirAttrs{Skipped: true, External: true}, spec.Dirs.Lookup("cli"))
	assert.Equal(t, DirAttrs{External: true}, spec.Dirs.Lookup("generated"))
	assert.Equal(t, DirAttrs{}, spec.Dirs.Lookup("alpha"))
	assert.Equal(t, []string{"cli"}, spec.Dirs.Skipped())
	assert.Equal(t, []string{"cli", "generated"}, spec.Dirs.External())

	require.Len(t, spec.Sections, 2)
	alpha := spec.Sections[0]
	assert.Equal(t, "ALPHA", alpha.Name)
	assert.Equal(t, "alpha", alpha.DirName)
	assert.Equal(t, `a\.`, alpha.SlugPrefix)
	assert.Equal(t, []Element{{Name: "foo"}, {Name: "bar"}}, alpha.BaseElements)
	assert.Equal(t, "plugins", alpha.ImportSource)
	assert.Equal(t, []Element{{Name: "Plug"}}, alpha.ImportedElements)
	assert.Equal(t, DocSourceSelf, alpha.DocSource)
	assert.Equal(t, LayoutDirectory, alpha.Layout)
	assert.True(t, alpha.HasImports())

	beta := spec.Sections[1]
	assert.Empty(t, beta.DirName)
	assert.Equal(t, LayoutFlat, beta.Layout)
	assert.Equal(t, []Element{{Name: "Exporter", Hint: "integrations.export"}}, beta.BaseElements)
	assert.False(t, beta.HasImports())

	assert.Equal(t, []string{"alpha"}, spec.DeclaredDirs())
}

func TestParseYAMLSectionNamesAsList(t *testing.T) {
	doc := `
global: {dirname: ref, library_root: .}
sections: [ONE]
ONE: {dirname: one, title: One, slug: "", elements: A, add_from: "", add_elements: "", module_doc_from: ""}
`
	spec, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.Len(t, spec.Sections, 1)
	assert.Equal(t, "one", spec.Sections[0].DirName)
}

func TestParseErrors(t *testing.T) {
	section := func(extra string) string {
		return "global: {dirname: ref, library_root: .}\nsections: {names: [S]}\nS:\n" + extra
	}
	full := "  dirname: s\n  title: S\n  slug: \"\"\n  add_from: \"\"\n  add_elements: \"\"\n"

	tests := []struct {
		name string
		doc  string
	}{
		{"missing global", "sections: {names: [S]}\n"},
		{"missing library_root", "global: {dirname: ref}\nsections: [S]\n"},
		{"empty section list", "global: {dirname: ref, library_root: .}\nsections: []\n"},
		{"listed without body", "global: {dirname: ref, library_root: .}\nsections: [S, T]\nS: {dirname: s, title: S, slug: '', elements: A, add_from: '', add_elements: '', module_doc_from: ''}\n"},
		{"missing module_doc_from", section(full + "  elements: A\n")},
		{"duplicate section name", "global: {dirname: ref, library_root: .}\nsections: [S, S]\nS: {dirname: s, title: S, slug: '', elements: A, add_from: '', add_elements: '', module_doc_from: ''}\n"},
		{"blank element", section(full + "  module_doc_from: ''\n  elements: A,,B\n")},
		{"unknown layout", section(full + "  module_doc_from: ''\n  elements: A\n  layout: tree\n")},
		{"imports without source", "global: {dirname: ref, library_root: .}\nsections: [S]\nS: {dirname: s, title: S, slug: '', elements: A, add_from: '', add_elements: B, module_doc_from: ''}\n"},
		{"global dirname escapes output root", "global: {dirname: '..', library_root: .}\nsections: [S]\nS: {dirname: s, title: S, slug: '', elements: A, add_from: '', add_elements: '', module_doc_from: ''}\n"},
		{"malformed yaml", "global: [\n"},
		{"not a mapping", "- a\n- b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatYAML)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig), "got %v", err)
		})
	}
}

func TestParseRejectsEscapingBaseDir(t *testing.T) {
	for _, dir := range []string{"..", "../out", "ref/../..", ".", "./", "/tmp/ref", `..\\up`} {
		t.Run(dir, func(t *testing.T) {
			doc := "global: {dirname: '" + dir + "', library_root: .}\nsections: [S]\n" +
				"S: {dirname: s, title: S, slug: '', elements: A, add_from: '', add_elements: '', module_doc_from: ''}\n"
			_, err := Parse([]byte(doc), FormatYAML)
			require.Error(t, err)
			classified, ok := ferrors.AsClassified(err)
			require.True(t, ok)
			assert.Equal(t, ferrors.CategoryConfig, classified.Category())
			field, _ := classified.Context().GetString("field")
			assert.Equal(t, "dirname", field)
		})
	}

	doc := "global: {dirname: docs/ref, library_root: .}\nsections: [S]\n" +
		"S: {dirname: s, title: S, slug: '', elements: A, add_from: '', add_elements: '', module_doc_from: ''}\n"
	spec, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "docs/ref", spec.Global.DirName)
}

func TestParseElements(t *testing.T) {
	els, err := ParseElements("  ")
	require.NoError(t, err)
	assert.Nil(t, els)

	els, err = ParseElements(" Foo ,Bar@a.b , Baz")
	require.NoError(t, err)
	assert.Equal(t, []Element{{Name: "Foo"}, {Name: "Bar", Hint: "a.b"}, {Name: "Baz"}}, els)
	assert.Equal(t, "Bar@a.b", els[1].String())

	_, err = ParseElements("Foo,")
	require.Error(t, err)
	_, err = ParseElements("@hint")
	require.Error(t, err)
}

const validHCL = `
global {
  dirname      = "ref"
  library_root = "lib"
}

directory_titles = {
  alpha = "Alpha API"
}

skip     = ["cli"]
external = ["cli"]
sections = ["ALPHA", "FLAT"]

section "ALPHA" {
  dirname         = "alpha"
  title           = "Alpha"
  slug            = "x."
  elements        = "foo, bar"
  add_from        = ""
  add_elements    = ""
  module_doc_from = "self"
}

section "FLAT" {
  dirname         = ""
  title           = ""
  slug            = ""
  elements        = "Exp@integrations"
  add_from        = ""
  add_elements    = ""
  module_doc_from = ""
  layout          = "flat"
}
`

func TestParseHCL(t *testing.T) {
	spec, err := Parse([]byte(validHCL), FormatHCL)
	require.NoError(t, err)

	assert.Equal(t, "ref", spec.Global.DirName)
	assert.Equal(t, "Alpha API", spec.Title("alpha"))
	assert.Equal(t, DirAttrs{Skipped: true, External: true}, spec.Dirs.Lookup("cli"))
	require.Len(t, spec.Sections, 2)
	assert.Equal(t, []Element{{Name: "foo"}, {Name: "bar"}}, spec.Sections[0].BaseElements)
	assert.Equal(t, LayoutDirectory, spec.Sections[0].Layout)
	assert.Equal(t, LayoutFlat, spec.Sections[1].Layout)
	assert.Equal(t, "integrations", spec.Sections[1].BaseElements[0].Hint)
}

func TestParseHCLMissingAttribute(t *testing.T) {
	doc := `
global {
  dirname      = "ref"
  library_root = "lib"
}
sections = ["A"]
section "A" {
  dirname = "a"
}
`
	_, err := Parse([]byte(doc), FormatHCL)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadResolvesPathsAndExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("REFDOCS_TEST_DIRNAME", "api")
	content := `
global:
  dirname: ${REFDOCS_TEST_DIRNAME}
  library_root: ../lib
  template: SUMMARY.tmpl
sections: [S]
S: {dirname: s, title: S, slug: "", elements: A, add_from: "", add_elements: "", module_doc_from: ""}
`
	path := filepath.Join(dir, "refdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	spec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "api", spec.Global.DirName)
	assert.Equal(t, filepath.Clean(filepath.Join(dir, "..", "lib")), spec.Global.LibraryRoot)
	assert.Equal(t, filepath.Join(dir, "SUMMARY.tmpl"), spec.Global.Template)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatHCL, FormatFromPath("refdocs.HCL"))
	assert.Equal(t, FormatYAML, FormatFromPath("refdocs.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("refdocs"))
}

func TestHashStable(t *testing.T) {
	a, err := Parse([]byte(validYAML), FormatYAML)
	require.NoError(t, err)
	b, err := Parse([]byte(validYAML), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)

	b.Sections[0].Title = "changed"
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestWriteExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "refdocs.yaml")
	require.NoError(t, WriteExample(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	spec, err := Parse(data, FormatYAML)
	require.NoError(t, err)
	assert.Len(t, spec.Sections, 2)

	err = WriteExample(path, false)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	require.NoError(t, WriteExample(path, true))
}
