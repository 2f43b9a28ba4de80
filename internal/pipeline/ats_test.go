package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestATSScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		expected float64
	}{
		{
			name:     "NoKeywords",
			text:     "Built a payment platform in Go",
			keywords: nil,
			expected: 0,
		},
		{
			name:     "AllMatched",
			text:     "Built a payment platform in Go on Kubernetes",
			keywords: []string{"go", "kubernetes"},
			expected: 100,
		},
		{
			name:     "HalfMatched",
			text:     "Built a payment platform in Go",
			keywords: []string{"go", "kubernetes"},
			expected: 50,
		},
		{
			name:     "CaseInsensitive",
			text:     "built a PAYMENT platform",
			keywords: []string{"Payment"},
			expected: 100,
		},
		{
			name:     "MultiTokenKeywordNeedsAllTokens",
			text:     "Operated the continuous pipeline for releases",
			keywords: []string{"continuous integration"},
			expected: 0,
		},
		{
			name:     "MultiTokenKeywordMatched",
			text:     "Operated the continuous integration pipeline",
			keywords: []string{"continuous integration"},
			expected: 100,
		},
		{
			name:     "EmptyText",
			text:     "",
			keywords: []string{"go"},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ATSScore(tt.text, tt.keywords), 0.001)
		})
	}
}

func TestATSScoreStaysInRange(t *testing.T) {
	score := ATSScore("go go go", []string{"go", "rust", "zig", "java", "python"})
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}
