package scorers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatchScorer(t *testing.T) {
	scorer := NewExactMatchScorer()
	assert.Equal(t, "exact_match", scorer.Name())

	tests := []struct {
		name     string
		expected any
		output   any
		want     bool
	}{
		{name: "equal strings", expected: "hello", output: "hello", want: true},
		{name: "different strings", expected: "hello", output: "world", want: false},
		{
			name:     "int matches float of same value",
			expected: map[string]any{"a": 1},
			output:   map[string]any{"a": 1.0},
			want:     true,
		},
		{
			name:     "key order irrelevant",
			expected: map[string]any{"a": 1, "b": 2},
			output:   map[string]any{"b": 2, "a": 1},
			want:     true,
		},
		{
			name:     "extra key mismatch",
			expected: map[string]any{"a": 1},
			output:   map[string]any{"a": 1, "b": 2},
			want:     false,
		},
		{
			name:     "nested mismatch",
			expected: map[string]any{"a": []any{1, 2}},
			output:   map[string]any{"a": []any{2, 1}},
			want:     false,
		},
		{name: "nil matches nil", expected: nil, output: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, err := scorer.Score(context.Background(), tt.expected, tt.output)
			require.NoError(t, err)

			assert.Equal(t, "exact_match", score.Name)
			assert.Equal(t, tt.want, score.Passed)
			if tt.want {
				assert.Equal(t, 1.0, score.Value)
			} else {
				assert.Equal(t, 0.0, score.Value)
			}
		})
	}
}
