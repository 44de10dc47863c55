// Package library builds a symbol table for a Go source tree.
//
// Packages are parsed lazily with tree-sitter the first time they are
// addressed and kept in a bounded LRU cache. All lookups are pure: a missing
// namespace or name is reported through LookupResult, never as an error.
package library

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
)

// DefaultCacheSize bounds the number of parsed packages kept in memory.
const DefaultCacheSize = 128

// Library is the handle to the target library.
type Library struct {
	root   string
	name   string
	logger *slog.Logger

	mu     sync.Mutex
	cache  *lru.Cache[string, *Namespace]
	parses int
}

// Option configures a Library.
type Option func(*Library)

// WithCacheSize overrides DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(l *Library) {
		if n > 0 {
			l.cache, _ = lru.New[string, *Namespace](n)
		}
	}
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// Open returns a handle for the library rooted at root. name is the
// library's import name; a leading "name." on namespace paths is stripped.
func Open(root, name string, opts ...Option) (*Library, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid library root").
			Fatal().
			WithContext("path", root).
			Build()
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "library root is not a directory").
			Fatal().
			WithContext("path", abs).
			Build()
	}

	cache, err := lru.New[string, *Namespace](DefaultCacheSize)
	if err != nil {
		return nil, ferrors.InternalError("failed to create namespace cache").WithCause(err).Build()
	}
	l := &Library{root: abs, name: name, logger: slog.Default(), cache: cache}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Root returns the absolute library root.
func (l *Library) Root() string { return l.root }

// Name returns the configured library name.
func (l *Library) Name() string { return l.name }

// Parses returns how many packages have been parsed so far, cache misses included.
func (l *Library) Parses() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.parses
}

// Invalidate drops every cached package.
func (l *Library) Invalidate() {
	l.cache.Purge()
}

// Normalize strips the library-name prefix and surrounding dots from a
// namespace path.
func (l *Library) Normalize(path string) string {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if l.name == "" {
		return path
	}
	if path == l.name {
		return ""
	}
	return strings.TrimPrefix(path, l.name+".")
}

// Namespace returns the package at the dotted path. ok is false when no
// such package directory exists.
func (l *Library) Namespace(ctx context.Context, path string) (*Namespace, bool, error) {
	path = l.Normalize(path)

	l.mu.Lock()
	defer l.mu.Unlock()

	if ns, ok := l.cache.Get(path); ok {
		return ns, true, nil
	}

	dir, ok := l.dirFor(path)
	if !ok {
		return nil, false, nil
	}
	ns, err := l.parseNamespace(ctx, path, dir)
	if err != nil {
		return nil, false, err
	}
	l.parses++
	l.cache.Add(path, ns)
	l.logger.Debug("Parsed namespace",
		logfields.Namespace(path),
		logfields.Count(len(ns.order)),
		slog.Int("files", len(ns.Files)))
	return ns, true, nil
}

// Lookup resolves name inside the namespace at path. Exported declarations
// win over child packages of the same name.
func (l *Library) Lookup(ctx context.Context, path, name string) (LookupResult, error) {
	path = l.Normalize(path)
	ns, ok, err := l.Namespace(ctx, path)
	if err != nil {
		return LookupResult{}, err
	}
	if !ok {
		return LookupResult{Status: NamespaceMissing, Namespace: path}, nil
	}
	if sym, ok := ns.Symbol(name); ok {
		return LookupResult{Status: Found, Namespace: path, Symbol: sym}, nil
	}

	if !strings.Contains(name, ".") {
		child, ok, err := l.Namespace(ctx, JoinPath(path, name))
		if err != nil {
			return LookupResult{}, err
		}
		if ok {
			return LookupResult{Status: Found, Namespace: path, Symbol: l.moduleSymbol(path, name, child)}, nil
		}
	}
	return LookupResult{Status: NameMissing, Namespace: path}, nil
}

func (l *Library) moduleSymbol(parent, name string, child *Namespace) *Symbol {
	rel, _ := filepath.Rel(l.root, child.Dir)
	sig := "package " + name
	if child.PackageName != "" {
		sig = "package " + child.PackageName
	}
	members := make([]string, 0, len(child.order)+len(child.Packages))
	members = append(members, child.order...)
	members = append(members, child.Packages...)
	return &Symbol{
		Name:      name,
		Namespace: parent,
		Qualified: l.qualify(parent, name),
		Kind:      KindModule,
		Doc:       child.Doc,
		Signature: sig,
		File:      filepath.ToSlash(rel),
		Members:   members,
	}
}

func (l *Library) qualify(ns, name string) string {
	return JoinPath(JoinPath(l.name, ns), name)
}

func (l *Library) dirFor(path string) (string, bool) {
	dir := l.root
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			if part == "" || ignoredDir(part) {
				return "", false
			}
			dir = filepath.Join(dir, part)
		}
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

// ignoredDir reports directories that never hold library packages.
func ignoredDir(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func isSourceFile(d fs.DirEntry) bool {
	name := d.Name()
	return !d.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") &&
		!strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "_")
}
