// Package sidebar derives the navigation manifest from the written tree.
//
// The manifest is built from what is on disk, not from the plans alone, so
// external directories and stale-free regeneration are reflected. Plans only
// contribute ordering: planned pages and the directories holding them come
// first, in configuration order. Everything else follows in the order
// os.ReadDir yields it; that order is not something the tool controls for
// content it does not own.
package sidebar

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/refdocs/internal/config"
	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
	"git.home.luguber.info/inful/refdocs/internal/plan"
	"git.home.luguber.info/inful/refdocs/internal/tree"
)

// Tree is the ordered manifest forest. Skipped directories are absent.
type Tree struct {
	Roots []*tree.Node
	// SkippedFiles counts files found under skipped directories.
	SkippedFiles int
}

// Leaves returns the number of leaf entries, index pages included.
func (t *Tree) Leaves() int {
	var count func([]*tree.Node) int
	count = func(nodes []*tree.Node) int {
		n := 0
		for _, node := range nodes {
			if node.Leaf || node.Index {
				n++
			}
			n += count(node.Children)
		}
		return n
	}
	return count(t.Roots)
}

type builder struct {
	run     *tree.Run
	spec    *config.Spec
	ranks   map[string]int
	logger  *slog.Logger
	skipped int
}

// Build walks the run's base directory and returns the manifest tree.
func Build(run *tree.Run, spec *config.Spec, plans []plan.SectionPlan, logger *slog.Logger) (*Tree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &builder{run: run, spec: spec, ranks: rankPaths(plans), logger: logger}
	roots, err := b.walk("")
	if err != nil {
		return nil, err
	}
	return &Tree{Roots: roots, SkippedFiles: b.skipped}, nil
}

// rankPaths numbers every planned page and every directory above it in plan
// order. A directory takes the rank of its first planned page.
func rankPaths(plans []plan.SectionPlan) map[string]int {
	ranks := make(map[string]int)
	next := 0
	for _, sp := range plans {
		for _, page := range sp.AllPages() {
			p := page.Path
			for p != "." && p != "" {
				if _, ok := ranks[p]; !ok {
					ranks[p] = next
				}
				p = path.Dir(p)
			}
			next++
		}
	}
	return ranks
}

func (b *builder) walk(rel string) ([]*tree.Node, error) {
	dir := filepath.Join(b.run.BaseDir(), filepath.FromSlash(rel))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.FileSystemError("failed to read output directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	b.order(rel, entries)

	var nodes []*tree.Node
	for _, e := range entries {
		childRel := path.Join(rel, e.Name())
		if e.IsDir() {
			node, err := b.dirNode(childRel)
			if err != nil {
				return nil, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
			continue
		}
		if path.Ext(e.Name()) != plan.PageExtension {
			continue
		}
		nodes = append(nodes, &tree.Node{
			Path:  path.Join(b.run.BaseName, strings.TrimSuffix(childRel, plan.PageExtension)),
			Title: strings.TrimSuffix(e.Name(), plan.PageExtension),
			Leaf:  true,
		})
	}
	return nodes, nil
}

func (b *builder) dirNode(rel string) (*tree.Node, error) {
	attrs := b.spec.Dirs.Lookup(rel)
	if !attrs.InManifest() {
		n, err := b.countFiles(rel)
		if err != nil {
			return nil, err
		}
		b.skipped += n
		b.logger.Debug("Directory excluded from manifest",
			logfields.Directory(rel),
			logfields.Count(n))
		return nil, nil
	}

	children, err := b.walk(rel)
	if err != nil {
		return nil, err
	}
	node := &tree.Node{
		Path:     path.Join(b.run.BaseName, rel),
		Title:    b.spec.Title(rel),
		External: attrs.External,
	}
	indexLeaf := path.Join(node.Path, strings.TrimSuffix(b.spec.Global.IndexPage, plan.PageExtension))
	for _, c := range children {
		if c.Leaf && c.Path == indexLeaf {
			node.Path = c.Path
			node.Index = true
			continue
		}
		node.Children = append(node.Children, c)
	}
	return node, nil
}

// countFiles walks a skipped directory. Its files must still be readable.
func (b *builder) countFiles(rel string) (int, error) {
	root := filepath.Join(b.run.BaseDir(), filepath.FromSlash(rel))
	n := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, ferrors.FileSystemError("failed to walk skipped directory").
			WithCause(err).
			WithContext("path", root).
			Build()
	}
	return n, nil
}

// order sorts planned entries by plan rank and keeps the rest in directory
// order behind them.
func (b *builder) order(rel string, entries []os.DirEntry) {
	rank := func(e os.DirEntry) (int, bool) {
		r, ok := b.ranks[path.Join(rel, e.Name())]
		return r, ok
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ri, oki := rank(entries[i])
		rj, okj := rank(entries[j])
		switch {
		case oki && okj:
			return ri < rj
		case oki != okj:
			return oki
		default:
			return false
		}
	})
}
