package graph

import (
	"fmt"
	"strings"
)

// DefinitionError reports a malformed or unsatisfiable flow definition. It is
// returned by Build before any vertex runs.
type DefinitionError struct {
	Problems []string
}

func (e *DefinitionError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid flow definition: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid flow definition (%d problems):\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

func (e *DefinitionError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *DefinitionError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
