package resolve

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeDoc turns a raw comment block into plain documentation text:
// comment markers are stripped, the common indentation removed, the text
// NFC-normalized and surrounding blank lines trimmed.
func NormalizeDoc(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	lines := stripMarkers(strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n"))
	lines = dedent(lines)

	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return norm.NFC.String(strings.Join(lines, "\n"))
}

func stripMarkers(lines []string) []string {
	out := make([]string, 0, len(lines))
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case inBlock:
			if i := strings.Index(line, "*/"); i >= 0 {
				line = line[:i]
				inBlock = false
			}
			out = append(out, strings.TrimRight(line, " \t"))
		case strings.HasPrefix(trimmed, "//"):
			text := strings.TrimPrefix(strings.TrimPrefix(trimmed, "//"), " ")
			out = append(out, strings.TrimRight(text, " \t"))
		case strings.HasPrefix(trimmed, "/*"):
			body := strings.TrimPrefix(trimmed, "/*")
			if i := strings.Index(body, "*/"); i >= 0 {
				body = body[:i]
			} else {
				inBlock = true
			}
			out = append(out, strings.TrimRight(body, " \t"))
		default:
			out = append(out, strings.TrimRight(line, " \t"))
		}
	}
	return out
}

// dedent removes the longest whitespace prefix shared by all non-blank lines.
func dedent(lines []string) []string {
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}
	if prefix == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimPrefix(line, prefix)
	}
	return out
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
