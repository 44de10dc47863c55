package tree

import (
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
)

// Claimant is one page claiming a destination path.
type Claimant struct {
	Section string `json:"section"`
	Symbol  string `json:"symbol"`
}

func (c Claimant) String() string {
	if c.Symbol == "" {
		return c.Section + " (index)"
	}
	return c.Section + ":" + c.Symbol
}

// PathCollisionError lists every page that computed the same path.
type PathCollisionError struct {
	Path      string     `json:"path"`
	Claimants []Claimant `json:"claimants"`
}

func (e *PathCollisionError) Error() string {
	names := make([]string, len(e.Claimants))
	for i, c := range e.Claimants {
		names[i] = c.String()
	}
	return fmt.Sprintf("path collision at %s: %s", e.Path, strings.Join(names, ", "))
}

// Classify maps the error onto the collision category.
func (e *PathCollisionError) Classify() *ferrors.ClassifiedError {
	return ferrors.CollisionError("output path collision").
		WithCause(e).
		WithContext("path", e.Path).
		WithContext("claimants", len(e.Claimants)).
		Build()
}

// PageFailure records a page whose rendering failed.
type PageFailure struct {
	Path    string `json:"path"`
	Section string `json:"section"`
	Symbol  string `json:"symbol,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// RenderError builds the classified error for a failed page render.
func RenderError(qualifiedName, path string, cause error) error {
	return ferrors.RenderError(fmt.Sprintf("failed to render %s", qualifiedName)).
		WithCause(cause).
		WithContext("symbol", qualifiedName).
		WithContext("path", path).
		Build()
}
