package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		// Exact matches.
		{"a", "a", true},
		{"a/b/c", "a/b/c", true},
		{"a/b", "a/b/c", false},
		{"a/b/c", "a/b", false},
		{"a", "b", false},

		// Terminal wildcard matches the remaining segments, including zero.
		{"a/#", "a/b/c", true},
		{"a/#", "a/b", true},
		{"a/#", "a", true},
		{"a/#", "x/y", false},
		{"#", "anything/at/all", true},
		{"#", "a", true},

		// Case-sensitive, segment-for-segment.
		{"A/b", "a/b", false},
		{"tank/level", "tank/Level", false},

		// Wildcard is a whole segment, not a substring.
		{"a/b#", "a/bc", false},
		{"a/b#", "a/b#", true},
	}

	for _, tt := range tests {
		got := Matches(tt.pattern, tt.topic)
		assert.Equalf(t, tt.want, got, "Matches(%q, %q)", tt.pattern, tt.topic)
	}
}

func TestValidatePattern(t *testing.T) {
	assert.NoError(t, ValidatePattern("a/b/c"))
	assert.NoError(t, ValidatePattern("a/#"))
	assert.NoError(t, ValidatePattern("#"))

	assert.ErrorIs(t, ValidatePattern(""), ErrInvalidPattern)
	assert.ErrorIs(t, ValidatePattern("a/#/b"), ErrInvalidPattern)
	assert.ErrorIs(t, ValidatePattern("#/a"), ErrInvalidPattern)
}
