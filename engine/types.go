// Package engine implements the question pipeline: input normalization,
// tone profiling, intent classification, response pattern selection and
// structured response composition, supervised by a graduated fallback
// chain that guarantees a well-formed response for every input.
package engine

// AmbiguityFlag marks a detected source of ambiguity in the input.
type AmbiguityFlag string

const (
	AmbiguityPronounReference AmbiguityFlag = "pronoun_reference"
	AmbiguityMultipleQuestion AmbiguityFlag = "multiple_questions"
	AmbiguityVagueTerminology AmbiguityFlag = "vague_terminology"
	AmbiguityConditional      AmbiguityFlag = "conditional_scenario"
	AmbiguityComparative      AmbiguityFlag = "comparative_phrasing"
)

// QuestionPart is a single sub-question extracted from a multi-part input.
type QuestionPart struct {
	Index int
	Text  string
}

// NormalizedInput is the output of the input processor.
// Immutable after Normalize returns.
type NormalizedInput struct {
	Raw        string
	Normalized string
	Parts      []QuestionPart
	Flags      []AmbiguityFlag
}

// HasFlag reports whether the given ambiguity flag was detected.
func (n NormalizedInput) HasFlag(flag AmbiguityFlag) bool {
	for _, f := range n.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// ToneCategory is a communication style bucket.
type ToneCategory string

const (
	ToneCasual    ToneCategory = "casual"
	ToneFormal    ToneCategory = "formal"
	ToneTechnical ToneCategory = "technical"
	ToneBusiness  ToneCategory = "business"
	ToneStartup   ToneCategory = "startup"
	ToneSlang     ToneCategory = "slang"
)

// formalityRank orders tone categories from most to least formal.
// Used for the conservative tie-break: misreading formal input as casual
// is more damaging than the reverse.
var formalityRank = map[ToneCategory]int{
	ToneFormal:    0,
	ToneTechnical: 1,
	ToneBusiness:  2,
	ToneStartup:   3,
	ToneCasual:    4,
	ToneSlang:     5,
}

// ToneProfile holds per-category style scores in [0,1] plus the resolved
// dominant category. Scores are independent, not mutually exclusive.
type ToneProfile struct {
	Scores   map[ToneCategory]float64
	Dominant ToneCategory
}

// Casualness returns the combined casual-side signal used by pattern
// selection and tone adaptation.
func (p ToneProfile) Casualness() float64 {
	return p.Scores[ToneCasual] + p.Scores[ToneSlang] + p.Scores[ToneStartup]
}

// IntentCategory is a top-level classification bucket.
type IntentCategory string

const (
	IntentDocument IntentCategory = "document_related"
	IntentGeneral  IntentCategory = "general_knowledge"
	IntentOffTopic IntentCategory = "off_topic"
	IntentCasual   IntentCategory = "casual"
)

// intentPriority breaks score ties. Lower value wins.
var intentPriority = map[IntentCategory]int{
	IntentDocument: 0,
	IntentGeneral:  1,
	IntentOffTopic: 2,
	IntentCasual:   3,
}

// IntentScore is the result of intent classification.
type IntentScore struct {
	Scores      map[IntentCategory]float64
	Category    IntentCategory
	Confidence  float64 // normalized gap between the top two scores, in [0,1]
	DataRequest bool    // explicit tabular/export request detected
}

// Pattern identifies a structured response template.
type Pattern string

const (
	PatternDocument      Pattern = "document"
	PatternGeneralLegal  Pattern = "general_legal"
	PatternDataTable     Pattern = "data_table"
	PatternAmbiguous     Pattern = "ambiguous"
	PatternErrorRecovery Pattern = "error_recovery"
)

// Section names used by the response patterns.
const (
	SectionEvidence     = "Evidence"
	SectionPlainEnglish = "Plain English"
	SectionImplications = "Implications"
	SectionStatus       = "Status"
	SectionGeneralRule  = "General Rule"
	SectionApplication  = "Application"
	SectionMyTake       = "My Take"
	SectionAlternatives = "Alternatives"
	SectionSynthesis    = "Synthesis"
	SectionTable        = "Table"
	SectionGuidance     = "Guidance"
	SectionSuggestions  = "Suggestions"
)

var patternSections = map[Pattern][]string{
	PatternDocument:      {SectionEvidence, SectionPlainEnglish, SectionImplications},
	PatternGeneralLegal:  {SectionStatus, SectionGeneralRule, SectionApplication},
	PatternDataTable:     {SectionTable},
	PatternAmbiguous:     {SectionMyTake, SectionAlternatives, SectionSynthesis},
	PatternErrorRecovery: {SectionGuidance, SectionSuggestions},
}

// RequiredSections returns the ordered list of sections the pattern must
// populate. The slice is shared; callers must not mutate it.
func (p Pattern) RequiredSections() []string {
	return patternSections[p]
}

// Valid reports whether p is a recognized pattern tag.
func (p Pattern) Valid() bool {
	_, ok := patternSections[p]
	return ok
}

// Tier identifies which fallback stage produced a response.
type Tier string

const (
	TierFull       Tier = "full"
	TierSimplified Tier = "simplified"
	TierMinimal    Tier = "minimal"
	TierTerminal   Tier = "terminal"
)

// Section is a named piece of composed response content.
type Section struct {
	Name    string
	Content string
}

// DataTable is tabular content emitted by the data table pattern.
type DataTable struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// ComposedResponse is the final structured answer. It is created once by
// the composer (or the fallback chain) and never mutated afterward.
type ComposedResponse struct {
	Pattern         Pattern
	Sections        []Section
	Content         string // rendered markdown of all sections
	Tone            ToneCategory
	Suggestions     []string
	ExportRequested bool
	ExportURL       string
	Table           *DataTable
	Tier            Tier
	Confidence      float64
}

// Section returns the content of the named section, or "" if absent.
func (r *ComposedResponse) Section(name string) string {
	for _, s := range r.Sections {
		if s.Name == name {
			return s.Content
		}
	}
	return ""
}

// Explanation exposes routing internals for test suites and telemetry.
// Not for end-user display.
type Explanation struct {
	Tier       Tier    `json:"tier"`
	Pattern    Pattern `json:"pattern"`
	Confidence float64 `json:"confidence"`
}
