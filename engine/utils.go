package engine

import (
	"strings"
	"unicode"
)

// truncate shortens s to at most maxLen runes, Unicode-safe.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// containsAny reports whether s contains any of the patterns.
func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// containsWord reports whether any of the given words appears in s as a
// whole token, with surrounding punctuation stripped.
func containsWord(s string, words []string) bool {
	return len(matchedWords(s, words)) > 0
}

// matchedWords returns the subset of words that appear in s as whole
// tokens. Multi-word entries fall back to substring matching.
func matchedWords(s string, words []string) []string {
	tokens := tokenize(s)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}

	var found []string
	for _, w := range words {
		if strings.Contains(w, " ") {
			if strings.Contains(s, w) {
				found = append(found, w)
			}
		} else if set[w] {
			found = append(found, w)
		}
	}
	return found
}

// tokenize splits text into lowercase word tokens, stripping punctuation.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true,
	"has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "this": true, "that": true, "these": true,
	"those": true,
}

// keywords extracts meaningful lowercase tokens: stop words and tokens
// shorter than three characters are dropped.
func keywords(s string) []string {
	var out []string
	for _, t := range tokenize(s) {
		if len(t) > 2 && !stopWords[t] {
			out = append(out, t)
		}
	}
	return out
}

// capitalize upper-cases the first rune of s.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// clamp01 bounds v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
