// Package validation checks a documentation tree for traceability
// consistency problems.
//
// Findings are reported as Issues rather than errors: an Issue describes the
// documentation, not a failure of the engine. Problems reading the tree are
// returned as errors and are never folded into the issue list.
package validation

import "fmt"

// Severity ranks an issue. Only SeverityError can stop a blocking run.
type Severity string

// Severity levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Built-in issue categories.
const (
	CategoryDuplicateID = "duplicate_id"
	CategoryMissingFile = "missing_file"
)

// Issue is one inconsistency found during a validation run.
type Issue struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
	FilePath string   `json:"file_path,omitempty"`
	Line     int      `json:"line_number,omitempty"`
}

// String formats the issue as "category: message", with the location
// appended when known.
func (i Issue) String() string {
	s := fmt.Sprintf("%s: %s", i.Category, i.Message)
	switch {
	case i.FilePath != "" && i.Line > 0:
		s += fmt.Sprintf(" (%s:%d)", i.FilePath, i.Line)
	case i.FilePath != "":
		s += fmt.Sprintf(" (%s)", i.FilePath)
	}
	return s
}

// Count returns the number of issues with the given severity.
func Count(issues []Issue, severity Severity) int {
	n := 0
	for _, i := range issues {
		if i.Severity == severity {
			n++
		}
	}
	return n
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	return Count(issues, SeverityError) > 0
}
