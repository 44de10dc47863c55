package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Revision identifies the commit a library root was read from.
type Revision struct {
	Commit string
	// Branch is empty for a detached HEAD.
	Branch string
	// RepoRoot is the worktree root of the enclosing repository.
	RepoRoot string
	// Subdir is the slash-separated path of the library root inside RepoRoot.
	Subdir string
}

// Short returns the abbreviated commit hash.
func (r Revision) Short() string {
	if len(r.Commit) > 12 {
		return r.Commit[:12]
	}
	return r.Commit
}

// ReadHead resolves HEAD of the repository enclosing path. ok is false when
// path is not inside a git checkout, or the repository has no commits yet.
func ReadHead(path string) (rev Revision, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Revision{}, false, fmt.Errorf("resolve %s: %w", path, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return Revision{}, false, nil
	}
	if err != nil {
		return Revision{}, false, fmt.Errorf("open repository at %s: %w", abs, err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return Revision{}, false, nil
	}
	if err != nil {
		return Revision{}, false, fmt.Errorf("read HEAD: %w", err)
	}

	rev = Revision{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	if wt, wtErr := repo.Worktree(); wtErr == nil {
		rev.RepoRoot = wt.Filesystem.Root()
		if rel, relErr := filepath.Rel(rev.RepoRoot, abs); relErr == nil && rel != "." {
			rev.Subdir = filepath.ToSlash(rel)
		}
	}
	return rev, true, nil
}

// SourceURL joins a repository browse prefix, the revision and a file path
// relative to the library root into a line-anchored link. An empty prefix
// yields an empty link.
func SourceURL(prefix string, rev Revision, file string, line int) string {
	if prefix == "" {
		return ""
	}
	parts := []string{strings.TrimRight(prefix, "/")}
	if rev.Commit != "" {
		parts = append(parts, rev.Commit)
	}
	if rev.Subdir != "" {
		parts = append(parts, rev.Subdir)
	}
	parts = append(parts, strings.TrimLeft(filepath.ToSlash(file), "/"))
	url := strings.Join(parts, "/")
	if line > 0 {
		url += fmt.Sprintf("#L%d", line)
	}
	return url
}
