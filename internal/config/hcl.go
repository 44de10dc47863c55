package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
)

// hclFile mirrors the YAML layout:
//
//	global { dirname = "ref" library_root = "../mylib" }
//	directory_titles = { ref = "Reference" }
//	skip     = ["internal"]
//	external = ["cli"]
//	sections = ["CORE"]
//	section "CORE" { dirname = "core" ... }
type hclFile struct {
	Global   hclGlobal         `hcl:"global,block"`
	Titles   map[string]string `hcl:"directory_titles,optional"`
	Skip     []string          `hcl:"skip,optional"`
	External []string          `hcl:"external,optional"`
	Sections []string          `hcl:"sections"`
	Bodies   []hclSection      `hcl:"section,block"`
}

type hclGlobal struct {
	DirName      string `hcl:"dirname"`
	LibraryRoot  string `hcl:"library_root"`
	LibraryName  string `hcl:"library_name,optional"`
	Repository   string `hcl:"repository,optional"`
	SourcePrefix string `hcl:"source_prefix,optional"`
	Template     string `hcl:"template,optional"`
	Manifest     string `hcl:"manifest,optional"`
	IndexPage    string `hcl:"index_page,optional"`
}

// Section attributes are required; gohcl reports a missing one as a diagnostic.
type hclSection struct {
	Name          string `hcl:"name,label"`
	DirName       string `hcl:"dirname"`
	Title         string `hcl:"title"`
	Slug          string `hcl:"slug"`
	Elements      string `hcl:"elements"`
	AddFrom       string `hcl:"add_from"`
	AddElements   string `hcl:"add_elements"`
	ModuleDocFrom string `hcl:"module_doc_from"`
	Layout        string `hcl:"layout,optional"`
}

func decodeHCL(data []byte, filename string) (*rawDocument, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, hclError("failed to parse HCL configuration", diags)
	}

	var f hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return nil, hclError("failed to decode HCL configuration", diags)
	}

	doc := &rawDocument{
		global: map[string]string{
			keyDirName:      f.Global.DirName,
			keyLibraryRoot:  f.Global.LibraryRoot,
			keyLibraryName:  f.Global.LibraryName,
			keyRepository:   f.Global.Repository,
			keySourcePrefix: f.Global.SourcePrefix,
			keyTemplate:     f.Global.Template,
			keyManifest:     f.Global.Manifest,
			keyIndexPage:    f.Global.IndexPage,
		},
		titles:   f.Titles,
		skip:     splitList(f.Skip),
		external: splitList(f.External),
		names:    splitList(f.Sections),
		bodies:   make(map[string]map[string]string, len(f.Bodies)),
	}
	for _, s := range f.Bodies {
		if _, dup := doc.bodies[s.Name]; dup {
			return nil, ferrors.ConfigError("section body defined more than once").
				WithContext("section", s.Name).
				Build()
		}
		doc.bodies[s.Name] = map[string]string{
			keyDirName:       s.DirName,
			keyTitle:         s.Title,
			keySlug:          s.Slug,
			keyElements:      s.Elements,
			keyAddFrom:       s.AddFrom,
			keyAddElements:   s.AddElements,
			keyModuleDocFrom: s.ModuleDocFrom,
			keyLayout:        s.Layout,
		}
	}
	return doc, nil
}

func hclError(message string, diags hcl.Diagnostics) error {
	b := ferrors.WrapError(diags, ferrors.CategoryConfig, message).Fatal()
	for _, d := range diags {
		if d.Severity == hcl.DiagError && d.Subject != nil {
			b = b.WithContext("line", d.Subject.Start.Line)
			break
		}
	}
	return b.Build()
}
