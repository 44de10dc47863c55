// Package resolve turns section declarations into resolved library symbols.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/library"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
)

// AnchorNamespace is the namespace base elements are resolved against.
const AnchorNamespace = ""

// Namespacer is the library handle the resolver reads from.
type Namespacer interface {
	Namespace(ctx context.Context, path string) (*library.Namespace, bool, error)
	Lookup(ctx context.Context, path, name string) (library.LookupResult, error)
}

// ResolvedSymbol is one declared element bound to a library symbol. It is
// immutable once returned.
type ResolvedSymbol struct {
	Name          string
	Hint          string
	QualifiedName string
	Namespace     string
	Kind          library.Kind
	DocText       string
	Signature     string
	File          string
	Line          int
	Members       []string
	Imported      bool
	OwnerSection  string
}

// Resolution is the resolved form of one section.
type Resolution struct {
	Section     config.SectionSpec
	Symbols     []ResolvedSymbol
	Description string
	Warnings    []DuplicateSymbolWarning
}

// Resolver resolves sections against a library.
type Resolver struct {
	lib    Namespacer
	logger *slog.Logger
}

// New returns a Resolver reading from lib.
func New(lib Namespacer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{lib: lib, logger: logger}
}

// Resolve resolves base elements in the anchor namespace, then imported
// elements in the section's import source, preserving declared order.
func (r *Resolver) Resolve(ctx context.Context, sec config.SectionSpec) (*Resolution, error) {
	res := &Resolution{Section: sec, Symbols: make([]ResolvedSymbol, 0, len(sec.BaseElements)+len(sec.ImportedElements))}

	var notFound []error
	appendAll := func(ns string, elements []config.Element, imported bool) error {
		for _, el := range elements {
			sym, err := r.resolveElement(ctx, sec.Name, ns, el)
			if err != nil {
				var nf *SymbolNotFoundError
				if errors.As(err, &nf) {
					notFound = append(notFound, err)
					continue
				}
				return err
			}
			sym.Imported = imported
			res.Symbols = append(res.Symbols, sym)
		}
		return nil
	}

	if err := appendAll(AnchorNamespace, sec.BaseElements, false); err != nil {
		return nil, err
	}
	if sec.HasImports() {
		if err := appendAll(sec.ImportSource, sec.ImportedElements, true); err != nil {
			return nil, err
		}
	}

	desc, err := r.description(ctx, sec)
	if err != nil {
		var nf *SymbolNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
		notFound = append(notFound, err)
	}
	res.Description = desc

	if len(notFound) > 0 {
		return nil, errors.Join(notFound...)
	}

	res.Warnings = duplicates(sec.Name, res.Symbols)
	for _, w := range res.Warnings {
		r.logger.Warn("Duplicate symbol in section",
			logfields.Section(w.Section),
			logfields.Symbol(w.Symbol),
			slog.String("first", w.First),
			slog.String("second", w.Second))
	}
	return res, nil
}

// ResolveAll resolves every section before returning. All missing symbols
// are reported together; any other failure aborts immediately.
func (r *Resolver) ResolveAll(ctx context.Context, spec *config.Spec) ([]*Resolution, error) {
	out := make([]*Resolution, 0, len(spec.Sections))
	var notFound []error
	for _, sec := range spec.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.Resolve(ctx, sec)
		if err != nil {
			var nf *SymbolNotFoundError
			if errors.As(err, &nf) {
				notFound = append(notFound, err)
				continue
			}
			return nil, err
		}
		r.logger.Debug("Resolved section",
			logfields.Section(sec.Name),
			logfields.Count(len(res.Symbols)))
		out = append(out, res)
	}
	if len(notFound) > 0 {
		return nil, errors.Join(notFound...)
	}
	return out, nil
}

// resolveElement looks name up in ns. A dotted name that is not itself a
// declaration of ns (such as "Client.Do") is retried as a nested namespace
// path ("apis.Handler").
func (r *Resolver) resolveElement(ctx context.Context, section, ns string, el config.Element) (ResolvedSymbol, error) {
	res, err := r.lib.Lookup(ctx, ns, el.Name)
	if err != nil {
		return ResolvedSymbol{}, err
	}
	if !res.OK() && res.Status == library.NameMissing {
		if i := strings.LastIndex(el.Name, "."); i > 0 {
			nested, err := r.lib.Lookup(ctx, library.JoinPath(ns, el.Name[:i]), el.Name[i+1:])
			if err != nil {
				return ResolvedSymbol{}, err
			}
			if nested.OK() {
				res = nested
			}
		}
	}
	if !res.OK() {
		return ResolvedSymbol{}, &SymbolNotFoundError{
			Symbol:    el.Name,
			Namespace: ns,
			Section:   section,
			Reason:    res.Status,
		}
	}

	s := res.Symbol
	sym := ResolvedSymbol{
		Name:          el.Name,
		Hint:          el.Hint,
		QualifiedName: s.Qualified,
		Namespace:     s.Namespace,
		Kind:          s.Kind,
		DocText:       NormalizeDoc(s.Doc),
		Signature:     s.Signature,
		File:          s.File,
		Line:          s.Line,
		OwnerSection:  section,
	}
	if len(s.Members) > 0 {
		sym.Members = append([]string(nil), s.Members...)
	}
	return sym, nil
}

func (r *Resolver) description(ctx context.Context, sec config.SectionSpec) (string, error) {
	source := sec.DocSource
	switch source {
	case "":
		return "", nil
	case config.DocSourceSelf:
		source = AnchorNamespace
	}
	ns, ok, err := r.lib.Namespace(ctx, source)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &SymbolNotFoundError{Namespace: source, Section: sec.Name, Reason: library.NamespaceMissing}
	}
	return NormalizeDoc(ns.Doc), nil
}

func duplicates(section string, symbols []ResolvedSymbol) []DuplicateSymbolWarning {
	seen := make(map[string]ResolvedSymbol, len(symbols))
	var out []DuplicateSymbolWarning
	for _, s := range symbols {
		if prev, ok := seen[s.Name]; ok {
			out = append(out, DuplicateSymbolWarning{
				Section: section,
				Symbol:  s.Name,
				First:   prev.QualifiedName,
				Second:  s.QualifiedName,
			})
			continue
		}
		seen[s.Name] = s
	}
	return out
}
