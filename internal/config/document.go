package config

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
)

// Section body keys. Every key in sectionKeys must be present in every
// section body, even when its value is empty.
const (
	keyDirName       = "dirname"
	keyTitle         = "title"
	keySlug          = "slug"
	keyElements      = "elements"
	keyAddFrom       = "add_from"
	keyAddElements   = "add_elements"
	keyModuleDocFrom = "module_doc_from"
	keyLayout        = "layout"
)

var sectionKeys = []string{
	keyDirName, keyTitle, keySlug, keyElements, keyAddFrom, keyAddElements, keyModuleDocFrom,
}

// Global keys.
const (
	keyLibraryRoot  = "library_root"
	keyLibraryName  = "library_name"
	keyRepository   = "repository"
	keySourcePrefix = "source_prefix"
	keyTemplate     = "template"
	keyManifest     = "manifest"
	keyIndexPage    = "index_page"
)

var requiredGlobalKeys = []string{keyDirName, keyLibraryRoot}

// rawDocument is the format-independent shape produced by the YAML and HCL
// decoders. Presence of a key is meaningful: a missing key and an empty value
// are different things.
type rawDocument struct {
	global   map[string]string
	titles   map[string]string
	skip     []string
	external []string
	names    []string
	bodies   map[string]map[string]string
}

// build validates a raw document and converts it to a Spec.
func (d *rawDocument) build() (*Spec, error) {
	if d.global == nil {
		return nil, ferrors.ConfigError("missing global settings section").Build()
	}
	for _, key := range requiredGlobalKeys {
		if strings.TrimSpace(d.global[key]) == "" {
			return nil, ferrors.ConfigError(fmt.Sprintf("global setting %q is required", key)).
				WithContext("field", key).
				Build()
		}
	}
	if err := checkBaseDir(strings.TrimSpace(d.global[keyDirName])); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid global dirname").
			Fatal().
			WithContext("field", keyDirName).
			Build()
	}
	if len(d.names) == 0 {
		return nil, ferrors.ConfigError("section list is empty").Build()
	}

	spec := &Spec{
		Global: Global{
			DirName:      strings.TrimSpace(d.global[keyDirName]),
			LibraryRoot:  strings.TrimSpace(d.global[keyLibraryRoot]),
			LibraryName:  strings.TrimSpace(d.global[keyLibraryName]),
			Repository:   strings.TrimSpace(d.global[keyRepository]),
			SourcePrefix: strings.Trim(strings.TrimSpace(d.global[keySourcePrefix]), "/"),
			Template:     strings.TrimSpace(d.global[keyTemplate]),
			Manifest:     strings.TrimSpace(d.global[keyManifest]),
			IndexPage:    strings.TrimSpace(d.global[keyIndexPage]),
		},
		Titles: make(map[string]string, len(d.titles)),
		Dirs:   NewDirSet(trimAll(d.skip), trimAll(d.external)),
	}
	if spec.Global.Manifest == "" {
		spec.Global.Manifest = DefaultManifestFile
	}
	if spec.Global.IndexPage == "" {
		spec.Global.IndexPage = DefaultIndexPage
	}
	for k, v := range d.titles {
		spec.Titles[strings.TrimSpace(k)] = v
	}

	seen := make(map[string]bool, len(d.names))
	for _, name := range d.names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, ferrors.ConfigError("empty name in section list").Build()
		}
		if seen[name] {
			return nil, ferrors.ConfigError(fmt.Sprintf("section %q listed more than once", name)).
				WithContext("section", name).
				Build()
		}
		seen[name] = true

		body, ok := d.bodies[name]
		if !ok {
			return nil, ferrors.ConfigError(fmt.Sprintf("section %q is listed but has no body", name)).
				WithContext("section", name).
				Build()
		}
		sec, err := buildSection(name, body)
		if err != nil {
			return nil, err
		}
		spec.Sections = append(spec.Sections, sec)
	}
	return spec, nil
}

// checkBaseDir rejects base directories that would place the generated tree,
// and therefore the purge, outside the output root.
func checkBaseDir(dir string) error {
	slashed := strings.ReplaceAll(dir, `\`, "/")
	if path.IsAbs(slashed) || filepath.IsAbs(dir) || filepath.VolumeName(dir) != "" {
		return fmt.Errorf("%q must be relative to the output root", dir)
	}
	if path.Clean(slashed) == "." {
		return fmt.Errorf("%q resolves to the output root itself", dir)
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return fmt.Errorf("%q must not contain %q", dir, "..")
		}
	}
	return nil
}

func buildSection(name string, body map[string]string) (SectionSpec, error) {
	for _, key := range sectionKeys {
		if _, ok := body[key]; !ok {
			return SectionSpec{}, ferrors.ConfigError(fmt.Sprintf("section %q is missing required field %q", name, key)).
				WithContext("section", name).
				WithContext("field", key).
				Build()
		}
	}

	base, err := ParseElements(body[keyElements])
	if err != nil {
		return SectionSpec{}, sectionFieldError(name, keyElements, err)
	}
	imported, err := ParseElements(body[keyAddElements])
	if err != nil {
		return SectionSpec{}, sectionFieldError(name, keyAddElements, err)
	}

	sec := SectionSpec{
		Name:             name,
		DirName:          strings.Trim(strings.TrimSpace(body[keyDirName]), "/"),
		Title:            strings.TrimSpace(body[keyTitle]),
		SlugPrefix:       body[keySlug],
		BaseElements:     base,
		ImportSource:     strings.TrimSpace(body[keyAddFrom]),
		ImportedElements: imported,
		DocSource:        strings.TrimSpace(body[keyModuleDocFrom]),
	}

	layout, err := resolveLayout(sec.DirName, body[keyLayout])
	if err != nil {
		return SectionSpec{}, sectionFieldError(name, keyLayout, err)
	}
	sec.Layout = layout

	if sec.ImportSource == "" && len(sec.ImportedElements) > 0 {
		return SectionSpec{}, sectionFieldError(name, keyAddElements,
			fmt.Errorf("%d elements declared without %s", len(sec.ImportedElements), keyAddFrom))
	}
	return sec, nil
}

func resolveLayout(dirName, raw string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		if dirName == "" {
			return LayoutFlat, nil
		}
		return LayoutDirectory, nil
	case LayoutDirectory:
		if dirName == "" {
			return "", fmt.Errorf("layout %q requires a dirname", LayoutDirectory)
		}
		return LayoutDirectory, nil
	case LayoutFlat:
		return LayoutFlat, nil
	default:
		return "", fmt.Errorf("unknown layout %q", raw)
	}
}

func sectionFieldError(section, field string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryConfig, fmt.Sprintf("invalid %s in section %q", field, section)).
		Fatal().
		WithContext("section", section).
		WithContext("field", field).
		Build()
}

// ParseElements splits a comma-separated element list. An empty or blank
// string is an empty list; blank items inside a non-empty list are an error.
func ParseElements(raw string) ([]Element, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]Element, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty element at position %d", i+1)
		}
		name, hint, _ := strings.Cut(part, "@")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("element %q has no name", part)
		}
		out = append(out, Element{Name: name, Hint: strings.TrimSpace(hint)})
	}
	return out, nil
}

// splitList accepts either a YAML/HCL list or a single comma-separated string.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.Trim(strings.TrimSpace(s), "/"); s != "" {
			out = append(out, s)
		}
	}
	return out
}
