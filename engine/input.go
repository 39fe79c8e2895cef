package engine

import (
	"log/slog"
	"strings"
	"unicode"
)

const (
	maxQuestionParts = 5
	minPartLength    = 9
)

// InputProcessor normalizes raw user input, splits multi-part questions
// and flags ambiguity sources. It never fails: malformed input degrades
// to a single-part result with no flags.
type InputProcessor struct{}

// NewInputProcessor creates an input processor.
func NewInputProcessor() *InputProcessor {
	return &InputProcessor{}
}

// Normalize sanitizes raw text and produces the immutable NormalizedInput
// consumed by the rest of the pipeline. A panic during normalization
// degrades to a single part holding the raw text, never to an empty
// result.
func (p *InputProcessor) Normalize(raw string) (out NormalizedInput) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("input normalization panicked", "recovered", r)
			out = fallbackInput(raw)
		}
	}()

	sanitized := sanitize(raw)
	normalized := strings.ToLower(sanitized)

	parts := splitQuestionParts(sanitized)
	flags := detectAmbiguity(normalized)

	return NormalizedInput{
		Raw:        raw,
		Normalized: normalized,
		Parts:      parts,
		Flags:      flags,
	}
}

// fallbackInput is the degraded result when normalization itself fails.
func fallbackInput(raw string) NormalizedInput {
	text := strings.TrimSpace(raw)
	return NormalizedInput{
		Raw:        raw,
		Normalized: strings.ToLower(text),
		Parts:      []QuestionPart{{Index: 0, Text: text}},
	}
}

// sanitize trims the input and strips control characters. Anything that
// cannot be interpreted as text collapses to the empty string.
func sanitize(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, raw)

	return strings.Join(strings.Fields(cleaned), " ")
}

// splitQuestionParts breaks the input into distinct sub-questions:
// question marks first, then coordinating conjunctions, then enumeration
// markers. Trivial leftover fragments are collapsed, and the part count
// is capped at maxQuestionParts.
func splitQuestionParts(text string) []QuestionPart {
	if text == "" {
		return []QuestionPart{{Index: 0, Text: ""}}
	}

	segments := []string{text}
	segments = splitOnQuestionMarks(segments)
	segments = splitOnSeparators(segments, conjunctionSeparators)
	segments = splitOnSeparators(segments, enumerationSeparators)

	var cleaned []string
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if len(seg) < minPartLength {
			continue
		}
		if !strings.ContainsFunc(seg, unicode.IsLetter) {
			continue
		}
		cleaned = append(cleaned, seg)
	}

	if len(cleaned) == 0 {
		cleaned = []string{strings.TrimSpace(text)}
	}
	if len(cleaned) > maxQuestionParts {
		cleaned = cleaned[:maxQuestionParts]
	}

	parts := make([]QuestionPart, len(cleaned))
	for i, seg := range cleaned {
		parts[i] = QuestionPart{Index: i, Text: seg}
	}
	return parts
}

func splitOnQuestionMarks(segments []string) []string {
	var out []string
	for _, seg := range segments {
		pieces := strings.Split(seg, "?")
		for i, piece := range pieces {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			// Keep the question mark on every piece that had one.
			if i < len(pieces)-1 {
				piece += "?"
			}
			out = append(out, piece)
		}
	}
	return out
}

func splitOnSeparators(segments []string, separators []string) []string {
	var out []string
	for _, seg := range segments {
		pieces := []string{seg}
		for _, sep := range separators {
			var next []string
			for _, p := range pieces {
				// foldASCII preserves byte length, so offsets into the
				// folded string are valid for the original.
				lower := foldASCII(p)
				if !strings.Contains(lower, sep) {
					next = append(next, p)
					continue
				}
				start := 0
				for {
					idx := strings.Index(lower[start:], sep)
					if idx < 0 {
						next = append(next, p[start:])
						break
					}
					next = append(next, p[start:start+idx])
					start += idx + len(sep)
				}
			}
			pieces = next
		}
		out = append(out, pieces...)
	}
	return out
}

// foldASCII lowercases ASCII letters only. Unlike strings.ToLower it
// never changes the byte length of the string, even for runes such as
// 'İ' whose Unicode lowercase mapping is longer.
func foldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// detectAmbiguity scans for the five ambiguity sources tracked by the
// classifier: vague pronouns, stacked question words, vague nouns,
// conditional phrasing and comparative phrasing.
func detectAmbiguity(lower string) []AmbiguityFlag {
	var flags []AmbiguityFlag

	if containsWord(lower, vaguePronouns) {
		flags = append(flags, AmbiguityPronounReference)
	}
	if len(matchedWords(lower, questionWords)) > 1 {
		flags = append(flags, AmbiguityMultipleQuestion)
	}
	if containsWord(lower, vagueNouns) {
		flags = append(flags, AmbiguityVagueTerminology)
	}
	if containsWord(lower, conditionalWords) {
		flags = append(flags, AmbiguityConditional)
	}
	if containsAny(lower, comparativePhrase) {
		flags = append(flags, AmbiguityComparative)
	}

	return flags
}
