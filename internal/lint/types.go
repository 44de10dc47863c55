package lint

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityInfo is informational only.
	SeverityInfo Severity = iota
	// SeverityWarning fails the run only in strict mode.
	SeverityWarning
	// SeverityError always fails the run.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Rule identifiers.
const (
	RuleUndocumented = "undocumented-symbol"
	RuleFingerprint  = "page-fingerprint"
)

// Issue is one linting problem.
type Issue struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Section  string   `json:"section,omitempty"`
	Symbol   string   `json:"symbol,omitempty"`
	// File is a library source file for symbol issues and an output page
	// for page issues.
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// SectionSummary lists what a section documents.
type SectionSummary struct {
	Name         string   `json:"name"`
	Symbols      int      `json:"symbols"`
	Undocumented []string `json:"undocumented,omitempty"`
	SourceFiles  []string `json:"source_files"`
}

// Result contains all issues found during linting.
type Result struct {
	Sections     []SectionSummary `json:"sections"`
	Issues       []Issue          `json:"issues"`
	PagesChecked int              `json:"pages_checked"`
}

// Count returns the number of issues at the given severity.
func (r *Result) Count(s Severity) int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			count++
		}
	}
	return count
}

// Failed reports whether the result fails the run. Strict mode promotes
// warnings to failures.
func (r *Result) Failed(strict bool) bool {
	if r.Count(SeverityError) > 0 {
		return true
	}
	return strict && r.Count(SeverityWarning) > 0
}
