package engine

import "strings"

// toneTieBreakMargin is the top-two gap below which the more formal
// category wins the dominant slot.
const toneTieBreakMargin = 0.05

// ToneProfiler scores the communication style of the input across
// independent categories. Scores come from the weighted lexical and
// punctuation cue tables in rules.go.
type ToneProfiler struct{}

// NewToneProfiler creates a tone profiler.
func NewToneProfiler() *ToneProfiler {
	return &ToneProfiler{}
}

// Profile computes per-category style scores in [0,1] and resolves the
// dominant category. When the top two scores are within
// toneTieBreakMargin of each other, the more formal category wins.
func (t *ToneProfiler) Profile(text string) ToneProfile {
	lower := strings.ToLower(text)

	scores := make(map[ToneCategory]float64, len(toneRules))
	for category, rule := range toneRules {
		hits := len(matchedWords(lower, rule.Words))
		score := float64(hits) / float64(len(rule.Words)) * rule.Multiplier
		if category == ToneCasual {
			// Exclamation density reads as casual regardless of vocabulary.
			score += float64(strings.Count(text, "!")) * 0.1
		}
		scores[category] = clamp01(score)
	}

	return ToneProfile{
		Scores:   scores,
		Dominant: dominantTone(scores),
	}
}

// dominantTone picks the highest-scoring category, preferring the more
// formal one when the margin is below the tie-break threshold.
func dominantTone(scores map[ToneCategory]float64) ToneCategory {
	var top float64
	for _, score := range scores {
		if score > top {
			top = score
		}
	}

	// Among categories within the tie-break band of the top score, the
	// most formal one wins.
	best := ToneSlang
	found := false
	for category, score := range scores {
		if score < top-toneTieBreakMargin {
			continue
		}
		if !found || formalityRank[category] < formalityRank[best] {
			best = category
			found = true
		}
	}
	if !found {
		return ToneFormal
	}
	return best
}
