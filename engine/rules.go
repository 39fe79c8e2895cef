package engine

import "regexp"

// Classification is driven by the weighted pattern tables below rather
// than inline conditionals, so the rules can be unit-tested and
// recalibrated without touching the pipeline control flow.

// WeightedPattern pairs a lexical cue with its score contribution.
// Substring cues match anywhere in the lowercased input; Regexp cues are
// used where word boundaries matter.
type WeightedPattern struct {
	Substr string
	Regexp *regexp.Regexp
	Weight float64
}

// matches reports whether the pattern fires on the lowercased text.
func (p WeightedPattern) matches(lower string) bool {
	if p.Regexp != nil {
		return p.Regexp.MatchString(lower)
	}
	return containsAny(lower, []string{p.Substr})
}

func literals(weight float64, terms ...string) []WeightedPattern {
	out := make([]WeightedPattern, 0, len(terms))
	for _, t := range terms {
		out = append(out, WeightedPattern{Substr: t, Weight: weight})
	}
	return out
}

// General legal vocabulary. Presence boosts document relevance and, for
// definition-style questions, general knowledge.
var legalTerms = literals(1,
	"agreement", "contract", "terms", "conditions", "liability",
	"intellectual property", "confidential", "proprietary", "obligations",
	"rights", "responsibilities", "breach", "termination", "governing law",
	"jurisdiction", "dispute", "arbitration", "indemnification", "warranty",
	"clause", "provision", "exhibit", "compliance", "damages", "remedy",
	"force majeure", "consideration", "severability", "waiver", "amendment",
	"effective date", "renewal", "assignment", "notice", "consent",
)

// Material-transfer vocabulary. Kept separate so MTA-specific expertise
// detection stays independent of the generic legal list.
var mtaTerms = literals(1,
	"material transfer", "mta", "research use", "derivatives", "publication",
	"recipient", "provider", "original material", "modifications",
	"research purposes", "commercial use", "third party", "ownership",
	"patent rights", "licensing", "academic", "university", "institution",
	"researcher", "laboratory",
)

// Off-topic subject cues.
var offTopicPatterns = []WeightedPattern{
	{Regexp: regexp.MustCompile(`\b(weather|sports|food|music|movie|tv|game|politics)\b`), Weight: 1},
	{Regexp: regexp.MustCompile(`\b(recipe|cooking|restaurant|travel|vacation)\b`), Weight: 1},
	{Regexp: regexp.MustCompile(`\b(birthday|holiday|weekend|party|celebration)\b`), Weight: 1},
	{Regexp: regexp.MustCompile(`\b(health|doctor|medicine|exercise|fitness)\b`), Weight: 1},
	{Regexp: regexp.MustCompile(`\b(mouse|animal|pet|creature)\b`), Weight: 1},
}

// Humor and whimsy cues, weighted above plain off-topic subjects.
var playfulPatterns = literals(2,
	"joke", "funny", "humor", "laugh", "comedy", "vibe", "silly",
	"pretend", "imagine", "as if", "like a",
)

// Stylistic-transformation phrasing ("explain X in the style of Y") is
// almost always off-topic even when it name-drops domain vocabulary, so
// it carries a dedicated large boost (tunable, see Config).
var styleTransformPhrases = []string{"style of", "in the style"}

// Document-specific qualifiers. Their presence turns a definition-style
// question back into a document question.
var documentQualifiers = []string{
	"this agreement", "the agreement", "this contract", "the contract",
	"this document", "the document", "in exhibit", "above", "below", "here",
}

// Definition-style openings that mark a general-knowledge question.
var definitionPhrases = []string{
	"what is", "what are", "what does", "define", "explain", "meaning of",
}

// Terms that read as general legal knowledge even without other legal
// vocabulary in the sentence.
var generalLegalTerms = []string{
	"mta", "nda", "liability clause", "intellectual property", "contract",
	"agreement", "indemnification", "force majeure",
}

var questionWords = []string{"what", "how", "why", "when", "where", "who", "which"}

// Casual conversational markers, for both intent and tone scoring.
var casualWords = []string{
	"hey", "hi", "hello", "yo", "sup", "cool", "awesome", "dude", "lol",
	"btw", "fyi", "yeah", "yep", "nah", "ok", "okay", "thanks", "thx",
	"gotcha", "cheers", "haha",
}

// Ambiguity cue tables.
var (
	vaguePronouns     = []string{"it", "this", "that", "they", "them", "these", "those"}
	vagueNouns        = []string{"thing", "stuff", "something", "anything", "everything"}
	conditionalWords  = []string{"if", "unless", "provided", "assuming", "suppose", "hypothetically"}
	comparativePhrase = []string{"better", "worse", "compared to", "versus", " vs ", "rather than", "difference between"}
)

// Multi-part splitting cues.
var (
	conjunctionSeparators = []string{" and ", " also ", " additionally ", " furthermore ", " moreover ", " plus "}
	enumerationSeparators = []string{" first ", " second ", " third ", " next ", " then ", " finally "}
)

// Data-request detection tiers, strongest first. The confidence assigned
// to a request is the maximum weight among fired patterns.
var exportPhrasePatterns = []WeightedPattern{
	{Regexp: regexp.MustCompile(`can you (give me|provide|create|generate) (a |an )?(excel|csv|table|report|file)`), Weight: 0.9},
	{Regexp: regexp.MustCompile(`i need (a |an )?(excel|csv|table|report|file)`), Weight: 0.9},
	{Regexp: regexp.MustCompile(`export (this|the data|everything)`), Weight: 0.9},
	{Regexp: regexp.MustCompile(`(show|put|organize) .* in (a |an )?(table|spreadsheet|excel)`), Weight: 0.9},
}

var exportKeywordTiers = []struct {
	Keywords []string
	Weight   float64
}{
	{[]string{"export", "download", "excel", "csv", "spreadsheet", "save as"}, 0.8},
	{[]string{"table", "breakdown", "tabulate", "matrix", "grid", "rows and columns"}, 0.6},
	{[]string{"comparison", "versus", "risk analysis", "summary report"}, 0.5},
}

// Tone cue tables with per-category normalization multipliers, mirroring
// the relative weights the scoring was calibrated with.
type toneRule struct {
	Words      []string
	Multiplier float64
}

var toneRules = map[ToneCategory]toneRule{
	ToneCasual: {Words: casualWords, Multiplier: 2.5},
	ToneFormal: {Words: []string{
		"please", "kindly", "would you", "could you", "thank you",
		"appreciate", "grateful", "respectfully", "sincerely", "regarding",
		"concerning", "pursuant to", "in accordance with",
	}, Multiplier: 2},
	ToneTechnical: {Words: []string{
		"clause", "provision", "liability", "indemnification", "breach",
		"jurisdiction", "governing law", "force majeure",
		"intellectual property", "confidentiality", "warranty", "covenant",
		"consideration", "termination", "amendment",
	}, Multiplier: 2},
	ToneBusiness: {Words: []string{
		"contract", "agreement", "terms", "conditions", "obligations",
		"parties", "deliverables", "milestones", "payment", "invoice",
		"compliance", "audit",
	}, Multiplier: 1.5},
	ToneStartup: {Words: []string{
		"disrupt", "scale", "pivot", "iterate", "mvp", "agile", "lean",
		"unicorn", "burn rate", "runway", "equity", "vesting", "cap table",
	}, Multiplier: 3},
	ToneSlang: {Words: []string{
		"gonna", "wanna", "gotta", "dunno", "ain't", "y'all", "whatcha", "lemme",
	}, Multiplier: 4},
}

// countMatches returns how many patterns fire on the lowercased text,
// and the summed weight of those that do.
func countMatches(lower string, patterns []WeightedPattern) (int, float64) {
	n := 0
	var sum float64
	for _, p := range patterns {
		if p.matches(lower) {
			n++
			sum += p.Weight
		}
	}
	return n, sum
}
