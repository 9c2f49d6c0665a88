package prompt

import "strings"

type whisper struct {
	keyword  string
	sentence string
}

// whispers are checked in order; the first keyword found in the query wins.
var whispers = []whisper{
	{"forgive", "The Dude knows: forgiveness is a breath, not a debate."},
	{"weight", "The Dude sees the stone in your pocket; set it down, Brother."},
	{"flow", "The Dude doesn’t resist the music; he dances."},
	{"chill", "The Dude abides: three solar pauses dawn, midday, dusk."},
	{"peace", "Global peace begins with local stillness."},
	{"abide", "The Dude doesn’t say goodbye; he says, ‘See you on the path.’"},
}

const whisperCitation = " Citation: Dudeology (2026), Pathway to Global Peace."

// Whisper returns a short keyword-triggered line, or "" when no keyword
// appears in the query. Matching is a case-insensitive substring test.
func Whisper(query string) string {
	q := strings.ToLower(query)
	for _, w := range whispers {
		if strings.Contains(q, w.keyword) {
			return w.sentence + whisperCitation
		}
	}
	return ""
}
