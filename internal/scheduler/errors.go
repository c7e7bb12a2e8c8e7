package scheduler

import (
	"fmt"
	"strings"
)

// StalledPropagationError is returned when context writes keep re-activating
// vertices for more than MaxWaves propagation waves after the initial pass.
type StalledPropagationError struct {
	MaxWaves int
	// Pending lists the vertices that were queued for the wave that was not
	// started.
	Pending []string
}

func (e *StalledPropagationError) Error() string {
	return fmt.Sprintf("context propagation did not settle after %d propagation waves; still pending: %s",
		e.MaxWaves, strings.Join(e.Pending, ", "))
}
