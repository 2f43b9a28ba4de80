package pipeline

import (
	"testing"

	"cvforge/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected types.Language
	}{
		{
			name:     "EnglishJobPosting",
			text:     "We are looking for a backend engineer to join the platform team and work on distributed systems in the cloud.",
			expected: types.LanguageEnglish,
		},
		{
			name:     "FrenchJobPosting",
			text:     "Nous recherchons un ingénieur backend pour rejoindre notre équipe. Vous travaillerez sur des systèmes distribués et la plateforme de données.",
			expected: types.LanguageFrench,
		},
		{
			name:     "EmptyText",
			text:     "",
			expected: types.LanguageEnglish,
		},
		{
			name:     "NoIndicatorWords",
			text:     "Kubernetes Docker Terraform AWS",
			expected: types.LanguageEnglish,
		},
		{
			name:     "TieResolvesToEnglish",
			text:     "the le",
			expected: types.LanguageEnglish,
		},
		{
			name:     "CaseInsensitive",
			text:     "LES ÉQUIPES DE LA DIRECTION ET DU GROUPE vous notre des",
			expected: types.LanguageFrench,
		},
		{
			name:     "PunctuationDoesNotGlueTokens",
			text:     "le,la;les.de du:des et est vous notre",
			expected: types.LanguageFrench,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectLanguage(tt.text))
		})
	}
}

func TestDetectLanguageIndicatorFrequencyWins(t *testing.T) {
	// A mostly-English text with a few borrowed French words stays English
	text := "Join the team and work with the best engineers in the industry. " +
		"Experience with la crème de la crème of cloud tooling is a plus."
	assert.Equal(t, types.LanguageEnglish, DetectLanguage(text))
}
