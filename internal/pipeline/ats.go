package pipeline

import "strings"

// ATSScore estimates how an applicant tracking system would score the given
// text against the job's keywords, as a percentage in [0,100]. A keyword
// counts as matched when every one of its tokens appears in the text. The
// score is advisory and never gates the pipeline.
func ATSScore(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	haystack := strings.ToLower(text)
	matched := 0
	for _, keyword := range keywords {
		if keywordMatches(haystack, keyword) {
			matched++
		}
	}

	return 100 * float64(matched) / float64(len(keywords))
}

// keywordMatches reports whether every token of the keyword appears in the
// lowercased haystack
func keywordMatches(haystack, keyword string) bool {
	tokens := strings.Fields(strings.ToLower(keyword))
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}
