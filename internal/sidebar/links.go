package sidebar

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/markdown"
)

// BrokenLink is a local link whose target does not exist.
type BrokenLink struct {
	File        string `json:"file"`
	Text        string `json:"text"`
	Destination string `json:"destination"`
}

func (l BrokenLink) String() string {
	return fmt.Sprintf("%s: [%s](%s)", l.File, l.Text, l.Destination)
}

// CheckLinks resolves every local link of the Markdown file at rel (relative
// to root) and returns the ones that point nowhere.
func CheckLinks(root, rel string, content []byte) []BrokenLink {
	var broken []BrokenLink
	dir := path.Dir(filepath.ToSlash(rel))
	for _, l := range markdown.ExtractLinks(content) {
		if !l.IsLocal() {
			continue
		}
		target := l.Target()
		if !strings.HasPrefix(target, "/") {
			target = path.Join(dir, target)
		}
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(target))); err != nil {
			broken = append(broken, BrokenLink{File: rel, Text: l.Text, Destination: l.Destination})
		}
	}
	return broken
}

// CheckFiles runs CheckLinks over several files below root.
func CheckFiles(root string, rels []string) ([]BrokenLink, error) {
	var broken []BrokenLink
	for _, rel := range rels {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read file for link check").
				WithContext("path", rel).
				Build()
		}
		broken = append(broken, CheckLinks(root, rel, content)...)
	}
	return broken, nil
}

// BrokenLinksError reports every broken link found.
func BrokenLinksError(links []BrokenLink) error {
	if len(links) == 0 {
		return nil
	}
	errs := make([]error, len(links))
	for i, l := range links {
		errs[i] = errors.New(l.String())
	}
	return ferrors.WrapError(errors.Join(errs...), ferrors.CategoryValidation, fmt.Sprintf("%d broken links", len(links))).
		WithContext("count", len(links)).
		Build()
}
