package bus

import (
	"errors"
	"fmt"
	"strings"
)

// Wildcard is the multi-level wildcard segment. It matches the remaining
// topic segments, including none, and may only appear as the last segment of
// a pattern.
const Wildcard = "#"

// ErrInvalidPattern is returned when a subscription pattern is rejected.
var ErrInvalidPattern = errors.New("invalid subscription pattern")

// ValidatePattern checks that a pattern is non-empty and that the wildcard,
// if present, is in terminal position.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	segments := strings.Split(pattern, "/")
	for i, seg := range segments {
		if seg == Wildcard && i != len(segments)-1 {
			return fmt.Errorf("%w: wildcard %q not in terminal position in %q", ErrInvalidPattern, Wildcard, pattern)
		}
	}
	return nil
}

// Matches reports whether topic matches pattern. Non-wildcard segments must
// match exactly, position for position; matching is case-sensitive and has no
// side effects.
func Matches(pattern, topic string) bool {
	psegs := strings.Split(pattern, "/")
	tsegs := strings.Split(topic, "/")

	for i, p := range psegs {
		if p == Wildcard {
			// Terminal wildcard swallows the rest, including nothing.
			return true
		}
		if i >= len(tsegs) || tsegs[i] != p {
			return false
		}
	}
	return len(psegs) == len(tsegs)
}
