package resolve

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/library"
)

// SymbolNotFoundError reports a declared element missing from the library.
// An empty Symbol means the namespace itself could not be found.
type SymbolNotFoundError struct {
	Symbol    string
	Namespace string
	Section   string
	Reason    library.LookupStatus
}

func (e *SymbolNotFoundError) Error() string {
	ns := e.Namespace
	if ns == "" {
		ns = "<root>"
	}
	if e.Symbol == "" {
		return fmt.Sprintf("section %s: namespace %q not found", e.Section, ns)
	}
	return fmt.Sprintf("section %s: symbol %q not found in namespace %q (%s)", e.Section, e.Symbol, ns, e.Reason)
}

// Classify maps the error onto the not_found category.
func (e *SymbolNotFoundError) Classify() *ferrors.ClassifiedError {
	return ferrors.NotFoundError("declared symbol not found").
		WithCause(e).
		WithContext("symbol", e.Symbol).
		WithContext("namespace", e.Namespace).
		WithContext("section", e.Section).
		Build()
}

// DuplicateSymbolWarning reports a name resolved more than once within one
// section. Both occurrences are kept.
type DuplicateSymbolWarning struct {
	Section string
	Symbol  string
	First   string
	Second  string
}

func (w DuplicateSymbolWarning) String() string {
	return fmt.Sprintf("section %s: %q resolved twice (%s, %s)", w.Section, w.Symbol, w.First, w.Second)
}
