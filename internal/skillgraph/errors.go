package skillgraph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates an unknown skill or subject area.
// Wrap sites add the missing identifier; callers match with errors.Is.
var ErrNotFound = errors.New("not found")

// InvalidGraphError indicates a tree whose prerequisite edges do not form
// a DAG, or that is structurally broken in another way (duplicate IDs,
// dangling edges, out-of-range thresholds).
type InvalidGraphError struct {
	Subject string
	// Cycle lists the skill IDs involved in a prerequisite cycle, if one
	// was found. Empty for non-cycle structural problems.
	Cycle    []string
	Problems []string
}

func (e *InvalidGraphError) Error() string {
	if len(e.Cycle) > 0 {
		return fmt.Sprintf("invalid skill graph for %q: prerequisite cycle involving %s",
			e.Subject, strings.Join(e.Cycle, ", "))
	}
	return fmt.Sprintf("invalid skill graph for %q:\n  %s",
		e.Subject, strings.Join(e.Problems, "\n  "))
}
