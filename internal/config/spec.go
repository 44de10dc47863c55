package config

import (
	"path"
	"slices"
	"sort"
)

// DocSourceSelf selects the anchor namespace's own package documentation.
const DocSourceSelf = "self"

// Layout selects how a section's pages are placed in the output tree.
type Layout string

const (
	// LayoutDirectory places every page under the section's dirname, mapping
	// dots in the slug to path separators.
	LayoutDirectory Layout = "directory"
	// LayoutFlat has no dedicated directory; each page lands in a directory
	// derived from the element's namespace hint and keeps a dotted filename.
	LayoutFlat Layout = "flat"
)

// Defaults for optional global settings.
const (
	DefaultManifestFile = "SUMMARY.md"
	DefaultIndexPage    = "README.md"
)

// Spec is the immutable, fully parsed configuration for one generation run.
type Spec struct {
	Global   Global
	Titles   map[string]string
	Dirs     DirSet
	Sections []SectionSpec
}

// Global holds settings shared by every section.
type Global struct {
	// DirName is the fixed base directory under the output root. Skip and
	// external directory names are relative to it.
	DirName      string
	LibraryRoot  string
	LibraryName  string
	Repository   string
	SourcePrefix string
	Template     string
	Manifest     string
	IndexPage    string
}

// Element is one declared symbol name, optionally carrying a destination hint
// (`Name@ns.path`) used by flat sections.
type Element struct {
	Name string
	Hint string
}

func (e Element) String() string {
	if e.Hint == "" {
		return e.Name
	}
	return e.Name + "@" + e.Hint
}

// SectionSpec is one named section of the documentation tree.
type SectionSpec struct {
	Name             string
	DirName          string
	Title            string
	SlugPrefix       string
	BaseElements     []Element
	ImportSource     string
	ImportedElements []Element
	DocSource        string
	Layout           Layout
}

// HasImports reports whether the section pulls symbols from a secondary namespace.
func (s SectionSpec) HasImports() bool {
	return s.ImportSource != ""
}

// Title returns the display title for a directory given by its path
// relative to the base directory. The full path is looked up first, then the
// last path element; the fallback is the last path element verbatim.
func (s *Spec) Title(dir string) string {
	if t, ok := s.Titles[dir]; ok && t != "" {
		return t
	}
	name := path.Base(dir)
	if t, ok := s.Titles[name]; ok && t != "" {
		return t
	}
	return name
}

// Section returns the section with the given name.
func (s *Spec) Section(name string) (SectionSpec, bool) {
	for _, sec := range s.Sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return SectionSpec{}, false
}

// DeclaredDirs returns the section directory names in declaration order,
// without duplicates. Flat sections contribute nothing.
func (s *Spec) DeclaredDirs() []string {
	var out []string
	for _, sec := range s.Sections {
		if sec.DirName == "" || slices.Contains(out, sec.DirName) {
			continue
		}
		out = append(out, sec.DirName)
	}
	return out
}

// DirAttrs is the per-directory attribute pair. Skipped directories exist on
// disk but are left out of the manifest; external directories are never purged
// but still appear in the manifest.
type DirAttrs struct {
	Skipped  bool
	External bool
}

// Purgeable reports whether the directory's contents may be removed at the
// start of a run.
func (a DirAttrs) Purgeable() bool { return !a.External }

// InManifest reports whether the directory contributes nodes to the manifest.
func (a DirAttrs) InManifest() bool { return !a.Skipped }

// DirSet maps directory names (relative to the base directory) to attributes.
type DirSet map[string]DirAttrs

// NewDirSet builds a DirSet from the skip and external lists.
func NewDirSet(skip, external []string) DirSet {
	d := make(DirSet, len(skip)+len(external))
	for _, name := range skip {
		a := d[name]
		a.Skipped = true
		d[name] = a
	}
	for _, name := range external {
		a := d[name]
		a.External = true
		d[name] = a
	}
	return d
}

// Lookup returns the attributes for a directory; unknown directories have none set.
func (d DirSet) Lookup(name string) DirAttrs {
	return d[name]
}

// Skipped returns the sorted skip set.
func (d DirSet) Skipped() []string {
	return d.collect(func(a DirAttrs) bool { return a.Skipped })
}

// External returns the sorted external set.
func (d DirSet) External() []string {
	return d.collect(func(a DirAttrs) bool { return a.External })
}

func (d DirSet) collect(keep func(DirAttrs) bool) []string {
	out := make([]string, 0, len(d))
	for name, a := range d {
		if keep(a) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
