package validation

import (
	"fmt"
	"io"
)

// MaxListedIssues caps the issues printed by WriteSummary.
const MaxListedIssues = 5

// WriteSummary prints a human-readable report of a validation run: a header,
// then either an all-clear line or the error and warning counts followed by
// the first MaxListedIssues issues.
func WriteSummary(w io.Writer, project string, issues []Issue) error {
	if _, err := fmt.Fprintf(w, "%s Engineering Validation\n", project); err != nil {
		return err
	}

	if len(issues) == 0 {
		_, err := fmt.Fprint(w, "All traceability requirements validated\nHealth Score: 100%\n")
		return err
	}

	if _, err := fmt.Fprintf(w, "Found %d errors, %d warnings\n",
		Count(issues, SeverityError), Count(issues, SeverityWarning)); err != nil {
		return err
	}

	for i, issue := range issues {
		if i == MaxListedIssues {
			if _, err := fmt.Fprintf(w, "  ... and %d more\n", len(issues)-MaxListedIssues); err != nil {
				return err
			}
			break
		}
		if _, err := fmt.Fprintf(w, "  [%s] %s\n", issue.Severity, issue); err != nil {
			return err
		}
	}
	return nil
}
