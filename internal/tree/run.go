package tree

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Node is one entry of the output hierarchy: a directory or a leaf page.
// Path is slash-separated and relative to the output root; leaf paths carry
// no extension. A directory with an index page takes the index page's path
// and has Index set.
type Node struct {
	Path     string  `json:"path"`
	Title    string  `json:"title"`
	Children []*Node `json:"children,omitempty"`
	External bool    `json:"external,omitempty"`
	Leaf     bool    `json:"leaf,omitempty"`
	Index    bool    `json:"index,omitempty"`
}

// Run identifies one generation run and where it writes. Nothing survives
// the run except what is written to disk.
type Run struct {
	ID         string
	OutputRoot string
	BaseName   string
}

// NewRun creates a run writing under outputRoot/baseName.
func NewRun(outputRoot, baseName string) *Run {
	return &Run{
		ID:         uuid.NewString(),
		OutputRoot: outputRoot,
		BaseName:   baseName,
	}
}

// BaseDir returns the absolute base directory.
func (r *Run) BaseDir() string {
	return filepath.Join(r.OutputRoot, filepath.FromSlash(r.BaseName))
}
