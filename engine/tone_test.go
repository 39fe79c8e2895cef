package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileDominantTone(t *testing.T) {
	p := NewToneProfiler()

	tests := []struct {
		name string
		text string
		want ToneCategory
	}{
		{"casual markers", "hey dude this contract stuff is cool lol", ToneCasual},
		{"slang contractions", "gonna need to know what i wanna watch out for", ToneSlang},
		{"technical vocabulary", "the indemnification clause interacts with the warranty provision", ToneTechnical},
		{"startup jargon", "how does vesting work with our cap table and runway", ToneStartup},
		{"neutral defaults to formal", "", ToneFormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Profile(tt.text)
			assert.Equal(t, tt.want, got.Dominant)
		})
	}
}

func TestProfileDeterministicTieBreak(t *testing.T) {
	p := NewToneProfiler()

	// Mixed-register input: whichever category wins, it must win every time.
	text := "please explain the clause regarding indemnification in the agreement"
	first := p.Profile(text).Dominant
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, p.Profile(text).Dominant)
	}
}

func TestProfileExclamationsReadCasual(t *testing.T) {
	p := NewToneProfiler()

	plain := p.Profile("tell me about the deadline")
	excited := p.Profile("tell me about the deadline!!!!")
	assert.Greater(t, excited.Scores[ToneCasual], plain.Scores[ToneCasual])
}

func TestCasualness(t *testing.T) {
	profile := ToneProfile{Scores: map[ToneCategory]float64{
		ToneCasual:  0.3,
		ToneSlang:   0.2,
		ToneStartup: 0.1,
		ToneFormal:  0.9,
	}}
	assert.InDelta(t, 0.6, profile.Casualness(), 1e-9)
}
