package plan

import (
	"fmt"
	"strings"
)

// Slug joins the section prefix and the symbol's declared name verbatim.
func Slug(prefix, name string) string {
	return prefix + name
}

// SplitSlug splits a slug on unescaped dots. A backslash escape is kept
// byte-for-byte, so `a\.b` stays one component.
func SplitSlug(slug string) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(slug); i++ {
		c := slug[i]
		switch {
		case c == '\\' && i+1 < len(slug):
			cur.WriteByte(c)
			cur.WriteByte(slug[i+1])
			i++
		case c == '.':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(parts, cur.String())
}

// joinComponents builds a slash path, rejecting components that would
// escape the base directory or produce an empty segment.
func joinComponents(parts ...string) (string, error) {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch p {
		case "":
			return "", fmt.Errorf("empty path component in %q", strings.Join(parts, "/"))
		case ".", "..":
			return "", fmt.Errorf("path component %q is not allowed", p)
		}
		if strings.Contains(p, "/") {
			return "", fmt.Errorf("path component %q contains a separator", p)
		}
		out = append(out, p)
	}
	return strings.Join(out, "/"), nil
}

func dotsToDirs(ns string) []string {
	ns = strings.Trim(ns, ".")
	if ns == "" {
		return nil
	}
	return strings.Split(ns, ".")
}
