package pipeline

import (
	"strings"
	"unicode"

	"cvforge/internal/types"
)

// Indicator words counted for language detection. Detection is intentionally
// lexical: counting a handful of high-frequency function words is reliable on
// job postings and costs nothing compared to an AI round trip.
var (
	frenchIndicators  = []string{"le", "la", "les", "de", "du", "des", "et", "est", "vous", "notre"}
	englishIndicators = []string{"the", "and", "of", "to", "in", "for", "with", "on", "at", "by"}
)

// DetectLanguage classifies job text as English or French by counting
// indicator words. Ties resolve to English.
func DetectLanguage(text string) types.Language {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	var french, english int
	for _, w := range frenchIndicators {
		french += counts[w]
	}
	for _, w := range englishIndicators {
		english += counts[w]
	}

	if french > english {
		return types.LanguageFrench
	}
	return types.LanguageEnglish
}
