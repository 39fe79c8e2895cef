package engine

import (
	"fmt"
	"strings"
)

// Interpretation is one reading of an ambiguous question.
type Interpretation struct {
	Label       string
	Description string
	Path        string
}

// interpretationIntents maps phrasing cues to a reading of what the user
// is after. Checked in order; first hit is the primary interpretation.
var interpretationIntents = []struct {
	Name       string
	Indicators []string
}{
	{"definition", []string{"what is", "what does", "define", "meaning of", "means"}},
	{"explanation", []string{"how does", "how can", "explain", "why does", "why is"}},
	{"comparison", []string{"difference", "compare", "versus", "better", "worse"}},
	{"procedure", []string{"how to", "steps", "process", "procedure"}},
	{"consequences", []string{"what happens", "result", "outcome", "implications"}},
	{"obligations", []string{"must", "required", "obligation", "responsibility"}},
	{"rights", []string{"can", "allowed", "permitted", "rights", "entitlement"}},
}

// analysisPaths describes the analysis angle for each question word.
var analysisPaths = map[string]string{
	"what":  "Identify and define the key concepts or elements mentioned.",
	"how":   "Explain the process, mechanism or method involved.",
	"when":  "Determine timing, deadlines or temporal aspects.",
	"where": "Identify location, jurisdiction or applicable scope.",
	"why":   "Analyze the reasoning, purpose or underlying rationale.",
	"which": "Compare options and identify the most relevant choice.",
	"who":   "Identify the parties, roles or responsible entities.",
}

// primaryInterpretation resolves the most likely reading of the question.
func primaryInterpretation(lower string) string {
	for _, intent := range interpretationIntents {
		if containsAny(lower, intent.Indicators) {
			return intent.Name
		}
	}
	return "general inquiry"
}

// alternativeInterpretations generates labeled alternative readings from
// the detected ambiguity sources. Always returns at least two entries so
// the ambiguous pattern can honor its contract.
func alternativeInterpretations(input NormalizedInput) []Interpretation {
	lower := input.Normalized
	var alts []Interpretation

	if input.HasFlag(AmbiguityMultipleQuestion) {
		for _, w := range matchedWords(lower, questionWords) {
			if len(alts) >= 3 {
				break
			}
			alts = append(alts, Interpretation{
				Label:       fmt.Sprintf("%s-focused reading", capitalize(w)),
				Description: fmt.Sprintf("Interpreting this as primarily a %q question.", w),
				Path:        analysisPaths[w],
			})
		}
	}
	if input.HasFlag(AmbiguityConditional) && len(alts) < 3 {
		alts = append(alts, Interpretation{
			Label:       "Conditional scenario",
			Description: "Analyzing this as a hypothetical or conditional situation.",
			Path:        "Examine the stated conditions and their potential outcomes.",
		})
	}
	if input.HasFlag(AmbiguityComparative) && len(alts) < 3 {
		alts = append(alts, Interpretation{
			Label:       "Comparative analysis",
			Description: "Interpreting this as a request to compare options or outcomes.",
			Path:        "Identify the elements being compared and weigh their relative merits.",
		})
	}
	if input.HasFlag(AmbiguityVagueTerminology) && len(alts) < 3 {
		alts = append(alts, Interpretation{
			Label:       "Clarification needed",
			Description: "This question may need more specific details for a complete answer.",
			Path:        "Address the general concept while noting what needs pinning down.",
		})
	}

	// The pattern contract requires at least two distinct paths.
	defaults := []Interpretation{
		{
			Label:       "Document-specific reading",
			Description: "You want specific information from the loaded document.",
			Path:        "Search for and explain the relevant provisions.",
		},
		{
			Label:       "General-context reading",
			Description: "You want general legal background on the topic.",
			Path:        "Explain how this typically works in agreements of this kind.",
		},
	}
	for _, d := range defaults {
		if len(alts) >= 2 {
			break
		}
		alts = append(alts, d)
	}

	// Relabel as lettered options for presentation.
	for i := range alts {
		alts[i].Label = fmt.Sprintf("Option %c: %s", 'A'+i, alts[i].Label)
	}
	return alts
}

// clarificationSuggestions builds follow-up prompts tailored to the
// alternatives that were offered.
func clarificationSuggestions(alts []Interpretation) []string {
	out := []string{
		"Could you clarify which specific aspect you're most interested in?",
		"Would you like me to focus on a particular part of the document?",
	}
	for _, alt := range alts {
		lower := strings.ToLower(alt.Label)
		switch {
		case strings.Contains(lower, "conditional"):
			out = append(out, "Are you asking about a hypothetical scenario or the current situation?")
		case strings.Contains(lower, "comparative"):
			out = append(out, "Which specific elements would you like me to compare?")
		case strings.Contains(lower, "clarification"):
			out = append(out, "Could you provide more specific details about what you're looking for?")
		}
	}
	return out
}
