package library

// Kind classifies a documentable symbol.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindModule   Kind = "module"
	KindConstant Kind = "constant"
	KindUnknown  Kind = "unknown"
)

// Symbol is one exported declaration of a namespace. Doc holds the raw
// comment block, markers included.
type Symbol struct {
	Name      string
	Namespace string
	Qualified string
	Kind      Kind
	Doc       string
	Signature string
	File      string
	Line      int

	// Members lists the exported names of a module symbol's package.
	Members []string
}

// Namespace is a parsed Go package addressed by its dotted path relative to
// the library root. The root package has the empty path.
type Namespace struct {
	Path        string
	Dir         string
	PackageName string
	Doc         string
	Files       []string
	Packages    []string

	symbols map[string]*Symbol
	order   []string
}

// Symbol returns the exported declaration with the given name.
func (n *Namespace) Symbol(name string) (*Symbol, bool) {
	s, ok := n.symbols[name]
	return s, ok
}

// Symbols returns the namespace's declarations in source order.
func (n *Namespace) Symbols() []*Symbol {
	out := make([]*Symbol, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.symbols[name])
	}
	return out
}

func (n *Namespace) add(s *Symbol) {
	if _, dup := n.symbols[s.Name]; dup {
		return
	}
	n.symbols[s.Name] = s
	n.order = append(n.order, s.Name)
}

// LookupStatus tells a found symbol apart from the two not-found cases.
type LookupStatus int

const (
	Found LookupStatus = iota
	NamespaceMissing
	NameMissing
)

func (s LookupStatus) String() string {
	switch s {
	case Found:
		return "found"
	case NamespaceMissing:
		return "namespace missing"
	case NameMissing:
		return "name missing"
	default:
		return "unknown"
	}
}

// LookupResult is the outcome of Library.Lookup.
type LookupResult struct {
	Status    LookupStatus
	Namespace string
	Symbol    *Symbol
}

// OK reports whether the lookup found a symbol.
func (r LookupResult) OK() bool { return r.Status == Found && r.Symbol != nil }

// JoinPath appends name to a dotted namespace path.
func JoinPath(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}
