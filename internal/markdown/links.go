// Package markdown extracts links from Markdown documents.
package markdown

import (
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

// Link is one link-like construct found in a document.
type Link struct {
	Kind        LinkKind
	Text        string
	Destination string
}

// IsLocal reports whether the link points into the same file tree: no
// scheme, no host, and not a pure fragment.
func (l Link) IsLocal() bool {
	if l.Kind == LinkKindAuto || l.Destination == "" || strings.HasPrefix(l.Destination, "#") {
		return false
	}
	u, err := url.Parse(l.Destination)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// Target returns the destination without query and fragment, with backslash
// and percent escapes resolved.
func (l Link) Target() string {
	dest := l.Destination
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		dest = dest[:i]
	}
	dest = unescapePunct(dest)
	if unescaped, err := url.PathUnescape(dest); err == nil {
		return unescaped
	}
	return dest
}

// unescapePunct resolves backslash escapes of ASCII punctuation. Link
// destinations keep them verbatim in the AST.
func unescapePunct(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isPunct(s[i+1]) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isPunct(c byte) bool {
	return c >= '!' && c <= '/' || c >= ':' && c <= '@' || c >= '[' && c <= '`' || c >= '{' && c <= '~'
}

// ExtractLinks parses a Markdown body and returns its links in document
// order. Reference-style links are reported at their use site.
func ExtractLinks(body []byte) []Link {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(parser.NewContext()))

	links := make([]Link, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body))})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Text: nodeText(node, body), Destination: string(node.Destination)})
		case *gmast.Link:
			links = append(links, Link{Kind: LinkKindInline, Text: nodeText(node, body), Destination: string(node.Destination)})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

func nodeText(n gmast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(nodeText(c, source))
	}
	return b.String()
}

// Destination formats a file path as a link destination that parses back
// to the same path. Backslashes are escaped and paths with spaces are
// wrapped in angle brackets.
func Destination(p string) string {
	p = strings.ReplaceAll(p, `\`, `\\`)
	if strings.ContainsAny(p, " ()") {
		return "<" + p + ">"
	}
	return p
}
