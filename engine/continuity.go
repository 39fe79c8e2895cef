package engine

import "strings"

// continuityTurnLimit bounds how far back topic continuity looks.
const continuityTurnLimit = 5

// ContinuityMatcher scores how strongly a question continues the topic
// of recent conversation turns. The score feeds the document-intent
// boost: a follow-up to a document discussion is probably still about
// the document even when it names no document terms.
type ContinuityMatcher struct{}

func NewContinuityMatcher() *ContinuityMatcher {
	return &ContinuityMatcher{}
}

// Score returns a value in [0,1] against the supplied turns, already
// loaded by the caller. An empty history scores zero: continuity is a
// boost, never a prerequisite.
func (m *ContinuityMatcher) Score(question string, turns []Turn) float64 {
	best := 0.0
	for _, turn := range turns {
		s := bigramSimilarity(question, turn.Question)
		if turn.Pattern == PatternDocument {
			s *= 1.2
		}
		if s > best {
			best = s
		}
	}
	return clamp01(best)
}

// bigramSimilarity is the Jaccard coefficient over character bigrams.
// Character bigrams tolerate inflection and minor rephrasing better
// than whole-word overlap on short questions.
func bigramSimilarity(a, b string) float64 {
	sa := bigrams(a)
	sb := bigrams(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	inter := 0
	for g := range sa {
		if sb[g] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func bigrams(s string) map[string]bool {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	out := make(map[string]bool, len(s))
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		out[string(runes[i:i+2])] = true
	}
	return out
}
