package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
)

const docFile = "doc.go"

func (l *Library) parseNamespace(ctx context.Context, path, dir string) (*Namespace, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.LibraryError("failed to read package directory").
			WithCause(err).
			WithContext("namespace", path).
			WithContext("path", dir).
			Build()
	}

	ns := &Namespace{Path: path, Dir: dir, symbols: make(map[string]*Symbol)}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(golang.GetLanguage())

	var docFromDocFile, docFromOther string
	for _, e := range entries {
		if e.IsDir() {
			if !ignoredDir(e.Name()) {
				ns.Packages = append(ns.Packages, e.Name())
			}
			continue
		}
		if !isSourceFile(e) {
			continue
		}

		file := filepath.Join(dir, e.Name())
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, ferrors.LibraryError("failed to read source file").
				WithCause(err).
				WithContext("path", file).
				Build()
		}
		tree, err := parser.ParseCtx(ctx, nil, src)
		if err != nil {
			return nil, ferrors.LibraryError("failed to parse source file").
				WithCause(err).
				WithContext("path", file).
				Build()
		}

		rel, _ := filepath.Rel(l.root, file)
		rel = filepath.ToSlash(rel)
		ns.Files = append(ns.Files, rel)

		root := tree.RootNode()
		if root.HasError() {
			l.logger.Warn("Source file has syntax errors; extracted declarations may be incomplete",
				logfields.Path(rel))
		}
		fx := fileExtractor{lib: l, ns: ns, src: src, file: rel}
		pkgDoc := fx.walk(root)
		tree.Close()

		switch {
		case pkgDoc == "":
		case e.Name() == docFile:
			docFromDocFile = pkgDoc
		case docFromOther == "":
			docFromOther = pkgDoc
		}
	}

	ns.Doc = docFromDocFile
	if ns.Doc == "" {
		ns.Doc = docFromOther
	}
	return ns, nil
}

type fileExtractor struct {
	lib  *Library
	ns   *Namespace
	src  []byte
	file string
}

// walk registers the file's exported top-level declarations and returns the
// package comment.
func (fx *fileExtractor) walk(root *sitter.Node) string {
	var pkgDoc string
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "package_clause":
			pkgDoc = docBefore(node, fx.src)
			if fx.ns.PackageName == "" && node.NamedChildCount() > 0 {
				fx.ns.PackageName = node.NamedChild(0).Content(fx.src)
			}
		case "function_declaration":
			fx.function(node)
		case "method_declaration":
			fx.method(node)
		case "type_declaration":
			fx.specs(node, KindClass, "type")
		case "const_declaration":
			fx.specs(node, KindConstant, "const")
		case "var_declaration":
			fx.specs(node, KindConstant, "var")
		}
	}
	return pkgDoc
}

func (fx *fileExtractor) function(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(fx.src)
	if !exported(name) {
		return
	}
	fx.add(name, KindFunction, docBefore(node, fx.src), header(node, fx.src), node)
}

// method registers exported methods of exported types as "Type.Method".
func (fx *fileExtractor) method(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	recv := receiverType(node.ChildByFieldName("receiver"), fx.src)
	if nameNode == nil || recv == "" {
		return
	}
	name := nameNode.Content(fx.src)
	if !exported(name) || !exported(recv) {
		return
	}
	fx.add(recv+"."+name, KindUnknown, docBefore(node, fx.src), header(node, fx.src), node)
}

func (fx *fileExtractor) specs(decl *sitter.Node, kind Kind, keyword string) {
	groupDoc := docBefore(decl, fx.src)
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			spec := n.NamedChild(i)
			switch spec.Type() {
			case "type_spec", "type_alias", "const_spec", "var_spec":
			case "var_spec_list":
				visit(spec)
				continue
			default:
				continue
			}
			doc := docBefore(spec, fx.src)
			if doc == "" {
				doc = groupDoc
			}
			sig := keyword + " " + spec.Content(fx.src)
			for _, name := range specNames(spec, fx.src) {
				if exported(name) {
					fx.add(name, kind, doc, sig, spec)
				}
			}
		}
	}
	visit(decl)
}

func (fx *fileExtractor) add(name string, kind Kind, doc, sig string, node *sitter.Node) {
	fx.ns.add(&Symbol{
		Name:      name,
		Namespace: fx.ns.Path,
		Qualified: fx.lib.qualify(fx.ns.Path, name),
		Kind:      kind,
		Doc:       doc,
		Signature: sig,
		File:      fx.file,
		Line:      int(node.StartPoint().Row) + 1,
	})
}

// specNames returns the declared identifiers of a spec. Type specs carry one
// name field; const and var specs may declare several.
func specNames(spec *sitter.Node, src []byte) []string {
	if spec.Type() == "type_spec" || spec.Type() == "type_alias" {
		if n := spec.ChildByFieldName("name"); n != nil {
			return []string{n.Content(src)}
		}
		return nil
	}
	var names []string
	for i := 0; i < int(spec.NamedChildCount()); i++ {
		child := spec.NamedChild(i)
		if child.Type() == "identifier" {
			names = append(names, child.Content(src))
		}
	}
	return names
}

// docBefore collects the comment block that ends on the line directly above node.
func docBefore(node *sitter.Node, src []byte) string {
	var lines []string
	current := node
	for {
		prev := current.PrevSibling()
		if prev == nil || prev.Type() != "comment" {
			break
		}
		if current.StartPoint().Row > prev.EndPoint().Row+1 {
			break
		}
		lines = append([]string{prev.Content(src)}, lines...)
		current = prev
	}
	return strings.Join(lines, "\n")
}

// header returns the declaration text up to its body.
func header(node *sitter.Node, src []byte) string {
	if body := node.ChildByFieldName("body"); body != nil {
		return strings.TrimSpace(string(src[node.StartByte():body.StartByte()]))
	}
	return strings.TrimSpace(node.Content(src))
}

func receiverType(params *sitter.Node, src []byte) string {
	if params == nil || params.NamedChildCount() == 0 {
		return ""
	}
	decl := params.NamedChild(0)
	typ := decl.ChildByFieldName("type")
	if typ == nil {
		return ""
	}
	name := strings.TrimSpace(typ.Content(src))
	name = strings.TrimLeft(name, "*( ")
	if i := strings.IndexAny(name, "[)"); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

func exported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
