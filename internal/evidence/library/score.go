package library

import "strings"

// distinctWords lowercases text and splits it on whitespace. No stemming or
// punctuation stripping is applied.
func distinctWords(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// relevance is the fraction of distinct query words present in text, in [0, 1].
func relevance(queryWords map[string]struct{}, text string) float64 {
	if len(queryWords) == 0 {
		return 0
	}
	textWords := distinctWords(text)
	overlap := 0
	for w := range queryWords {
		if _, ok := textWords[w]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(queryWords))
}
