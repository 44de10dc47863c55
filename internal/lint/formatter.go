package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// FormatterFor returns the formatter for "text" or "json".
func FormatterFor(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return TextFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown lint output format %q", format)
	}
}

// TextFormatter formats results as human-readable text.
type TextFormatter struct{}

// Format outputs sections, then issues, then a summary.
func (TextFormatter) Format(w io.Writer, result *Result) error {
	var b strings.Builder
	for _, s := range result.Sections {
		fmt.Fprintf(&b, "%s: %d symbols, %d undocumented\n", s.Name, s.Symbols, len(s.Undocumented))
		for _, f := range s.SourceFiles {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	if len(result.Issues) > 0 {
		b.WriteString(strings.Repeat("━", 60) + "\n")
	}
	for _, issue := range result.Issues {
		loc := issue.File
		if issue.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, issue.Line)
		}
		subject := issue.Symbol
		if subject == "" {
			subject = loc
			loc = ""
		}
		fmt.Fprintf(&b, "%-7s [%s] %s: %s", issue.Severity, issue.Rule, subject, issue.Message)
		if loc != "" {
			fmt.Fprintf(&b, " (%s)", loc)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d pages checked, %d errors, %d warnings\n",
		result.PagesChecked, result.Count(SeverityError), result.Count(SeverityWarning))
	_, err := io.WriteString(w, b.String())
	return err
}

// JSONFormatter formats results as indented JSON.
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, result *Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
