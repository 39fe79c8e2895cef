package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectPriority(t *testing.T) {
	s := NewPatternSelector(0.2)

	confident := func(cat IntentCategory) IntentScore {
		return IntentScore{Category: cat, Confidence: 0.8}
	}
	formal := ToneProfile{Dominant: ToneFormal}
	casual := ToneProfile{
		Dominant: ToneCasual,
		Scores:   map[ToneCategory]float64{ToneCasual: 0.6},
	}

	tests := []struct {
		name        string
		intent      IntentScore
		tone        ToneProfile
		flags       []AmbiguityFlag
		dataRequest bool
		want        Pattern
	}{
		{"data request wins over everything", confident(IntentDocument), formal, nil, true, PatternDataTable},
		{"low confidence goes ambiguous", IntentScore{Category: IntentDocument, Confidence: 0.1}, formal, nil, false, PatternAmbiguous},
		{"stacked flags go ambiguous", confident(IntentDocument), formal,
			[]AmbiguityFlag{AmbiguityPronounReference, AmbiguityVagueTerminology}, false, PatternAmbiguous},
		{"document intent", confident(IntentDocument), formal, nil, false, PatternDocument},
		{"general intent", confident(IntentGeneral), formal, nil, false, PatternGeneralLegal},
		{"casual off-topic redirects via general", confident(IntentOffTopic), casual, nil, false, PatternGeneralLegal},
		{"formal off-topic asks for clarification", confident(IntentOffTopic), formal, nil, false, PatternAmbiguous},
		{"single flag does not force ambiguous", confident(IntentDocument), formal,
			[]AmbiguityFlag{AmbiguityConditional}, false, PatternDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Select(tt.intent, tt.tone, tt.flags, tt.dataRequest)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectNeverPicksErrorRecovery(t *testing.T) {
	s := NewPatternSelector(0.2)

	categories := []IntentCategory{IntentDocument, IntentGeneral, IntentOffTopic, IntentCasual}
	for _, cat := range categories {
		for _, conf := range []float64{0, 0.1, 0.5, 1} {
			got := s.Select(IntentScore{Category: cat, Confidence: conf}, ToneProfile{Dominant: ToneFormal}, nil, false)
			assert.NotEqual(t, PatternErrorRecovery, got)
			assert.True(t, got.Valid())
		}
	}
}

func TestRequiredSections(t *testing.T) {
	assert.Equal(t,
		[]string{SectionEvidence, SectionPlainEnglish, SectionImplications},
		PatternDocument.RequiredSections())
	assert.Equal(t,
		[]string{SectionStatus, SectionGeneralRule, SectionApplication},
		PatternGeneralLegal.RequiredSections())
	assert.Equal(t,
		[]string{SectionMyTake, SectionAlternatives, SectionSynthesis},
		PatternAmbiguous.RequiredSections())
	assert.False(t, Pattern("bogus").Valid())
}
