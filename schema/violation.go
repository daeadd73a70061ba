package schema

import (
	"fmt"
	"strings"
)

// Issue classifies a single shape mismatch found during Parse.
type Issue string

const (
	// IssueMissing reports a required field absent from the input.
	IssueMissing Issue = "missing"

	// IssueWrongType reports a value whose type does not match the schema.
	IssueWrongType Issue = "wrong_type"

	// IssueOutOfRange reports a value outside a declared constraint.
	IssueOutOfRange Issue = "out_of_range"

	// IssueUnexpected reports a field the schema does not declare, under the
	// strict unknown-field policy.
	IssueUnexpected Issue = "unexpected"
)

// Violation pinpoints one mismatch: the ordered path of field names and
// array indices leading to it, the kind of mismatch, and a human detail.
type Violation struct {
	Path   []string
	Issue  Issue
	Detail string
}

func (v Violation) String() string {
	path := strings.Join(v.Path, ".")
	if path == "" {
		path = "$"
	}
	if v.Detail == "" {
		return fmt.Sprintf("%s: %s", path, v.Issue)
	}
	return fmt.Sprintf("%s: %s (%s)", path, v.Issue, v.Detail)
}

// ValidationFailure aggregates every violation found in one full traversal
// of the input. Parse never stops at the first mismatch, so the list is
// complete and ordered by field declaration.
type ValidationFailure struct {
	Violations []Violation
}

func (f *ValidationFailure) Error() string {
	parts := make([]string, len(f.Violations))
	for i, v := range f.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("schema: %d violation(s): %s", len(f.Violations), strings.Join(parts, "; "))
}
