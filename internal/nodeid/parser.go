// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single segment of an identifier.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

func parseSegments(raw string, want int) ([]string, error) {
	if raw == "" {
		return nil, fmt.Errorf("identifier cannot be empty")
	}
	segments := strings.Split(raw, ".")
	if len(segments) != want {
		return nil, fmt.Errorf("identifier %q must have %d dot-separated segments, got %d", raw, want, len(segments))
	}
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("identifier %q contains empty segment", raw)
		}
		if !segmentRegex.MatchString(s) {
			return nil, fmt.Errorf("invalid segment %q in identifier %q", s, raw)
		}
	}
	return segments, nil
}

// Parse creates an Address by parsing its canonical string representation.
func Parse(raw string) (Address, error) {
	segments, err := parseSegments(raw, 2)
	if err != nil {
		return Address{}, err
	}
	return New(segments[0], segments[1]), nil
}

// ParseOutputRef parses a `component.name.output` reference.
func ParseOutputRef(raw string) (Address, string, error) {
	segments, err := parseSegments(raw, 3)
	if err != nil {
		return Address{}, "", err
	}
	return New(segments[0], segments[1]), segments[2], nil
}
