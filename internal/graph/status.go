package graph

import "fmt"

// Status is the outcome of a vertex within a run.
type Status int

const (
	Pending Status = iota
	Running
	Succeeded
	Failed
	Blocked
	Cancelled
)

var statusNames = [...]string{"pending", "running", "succeeded", "failed", "blocked", "cancelled"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether s is a final outcome for a vertex in a wave.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed || s == Blocked || s == Cancelled
}
