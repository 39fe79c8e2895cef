package engine

import "log/slog"

// highCasualness is the combined casual-side tone score above which the
// casual/off-topic bucket renders through the lighter general template
// with redirection suggestions instead of the ambiguous template.
const highCasualness = 0.4

// PatternSelector maps a classification plus its surrounding signals to
// one of the structured response patterns. Selection is a fixed priority
// list: first match wins. PatternErrorRecovery is reserved for the
// fallback chain and never selected here.
type PatternSelector struct {
	lowConfidence float64
}

// NewPatternSelector creates a selector using the classifier's
// low-confidence threshold.
func NewPatternSelector(lowConfidence float64) *PatternSelector {
	if lowConfidence <= 0 {
		lowConfidence = DefaultClassifierConfig().LowConfidence
	}
	return &PatternSelector{lowConfidence: lowConfidence}
}

// Select resolves the response pattern.
//
// Priority: explicit data request, then low confidence or stacked
// ambiguity flags, then the winning intent category, with casual and
// off-topic questions routed through GeneralLegal or Ambiguous
// depending on how casual the tone reads.
func (s *PatternSelector) Select(intent IntentScore, tone ToneProfile, flags []AmbiguityFlag, dataRequest bool) Pattern {
	pattern := s.resolve(intent, tone, flags, dataRequest)
	slog.Debug("pattern selected",
		"pattern", pattern,
		"category", intent.Category,
		"confidence", intent.Confidence,
		"ambiguity_flags", len(flags),
	)
	return pattern
}

func (s *PatternSelector) resolve(intent IntentScore, tone ToneProfile, flags []AmbiguityFlag, dataRequest bool) Pattern {
	if dataRequest {
		return PatternDataTable
	}
	if intent.Confidence < s.lowConfidence || len(flags) >= 2 {
		return PatternAmbiguous
	}

	switch intent.Category {
	case IntentDocument:
		return PatternDocument
	case IntentGeneral:
		return PatternGeneralLegal
	default:
		// Casual and off-topic questions get the general template with
		// redirection when the tone is clearly informal; otherwise the
		// ambiguous template asks for clarification.
		if tone.Casualness() >= highCasualness {
			return PatternGeneralLegal
		}
		return PatternAmbiguous
	}
}
