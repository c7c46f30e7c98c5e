package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "removes duplicates preserving order",
			input: []string{"openid", "email", "openid", "profile"},
			want:  []string{"openid", "email", "profile"},
		},
		{
			name:  "trims whitespace",
			input: []string{"  openid ", "email"},
			want:  []string{"openid", "email"},
		},
		{
			name:  "drops empty strings",
			input: []string{"", "  ", "openid"},
			want:  []string{"openid"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DedupeAndTrim(tc.input))
		})
	}
}

func TestUnion(t *testing.T) {
	got := Union([]string{"a", "b"}, []string{"b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)

	// union with itself is a no-op
	got = Union(got, []string{"a", "b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, got)

	got = Union(nil, []string{" x ", ""})
	assert.Equal(t, []string{"x"}, got)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains([]string{"openid", "email"}, "email"))
	assert.False(t, Contains([]string{"openid"}, "email"))
}
