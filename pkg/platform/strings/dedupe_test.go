package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil slice", input: nil, expected: nil},
		{name: "empty slice", input: []string{}, expected: []string{}},
		{
			name:     "case-insensitive duplicates collapse",
			input:    []string{"  A@Example.org ", "a@example.org", "b@example.org"},
			expected: []string{"a@example.org", "b@example.org"},
		},
		{
			name:     "drops blanks",
			input:    []string{"", "   ", "x@y.org"},
			expected: []string{"x@y.org"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrimLower(tt.input))
		})
	}
}

func TestNormalizeDomains(t *testing.T) {
	got := NormalizeDomains([]string{"@Example.org", "example.org", " Other.EDU "})
	assert.Equal(t, []string{"example.org", "other.edu"}, got)
}
