package engine

import (
	"log/slog"
	"sort"
	"strings"
)

// ClassifierConfig holds the tunable scoring constants. The boost and
// threshold values are calibration knobs, not load-bearing truths; they
// are validated by the classifier property tests.
type ClassifierConfig struct {
	// StyleTransformBoost is added to the raw off-topic score when
	// stylistic-transformation phrasing ("in the style of", "pretend")
	// is present. Such requests are nearly always off-topic even when
	// they name-drop domain vocabulary.
	StyleTransformBoost float64

	// OffTopicSuppression is the normalized-equivalent off-topic score
	// above which keyword overlap no longer contributes to document
	// relevance. Prevents a domain term inside a joke from pulling the
	// question into the document bucket.
	OffTopicSuppression float64

	// LowConfidence is the confidence floor below which the downstream
	// pattern selector treats the classification as ambiguous.
	LowConfidence float64

	// ContinuityBoost is added to document relevance when the
	// continuity matcher reports a repeated topic in the session.
	ContinuityBoost float64
}

// DefaultClassifierConfig returns the calibrated defaults.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		StyleTransformBoost: 5,
		OffTopicSuppression: 0.5,
		LowConfidence:       0.2,
		ContinuityBoost:     0.15,
	}
}

// IntentClassifier scores candidate intent categories for a question and
// resolves conflicts between them. Scoring is table-driven (rules.go).
type IntentClassifier struct {
	cfg ClassifierConfig
}

// NewIntentClassifier creates a classifier with the given configuration.
// Zero-valued fields fall back to defaults.
func NewIntentClassifier(cfg ClassifierConfig) *IntentClassifier {
	def := DefaultClassifierConfig()
	if cfg.StyleTransformBoost <= 0 {
		cfg.StyleTransformBoost = def.StyleTransformBoost
	}
	if cfg.OffTopicSuppression <= 0 {
		cfg.OffTopicSuppression = def.OffTopicSuppression
	}
	if cfg.LowConfidence <= 0 {
		cfg.LowConfidence = def.LowConfidence
	}
	if cfg.ContinuityBoost <= 0 {
		cfg.ContinuityBoost = def.ContinuityBoost
	}
	return &IntentClassifier{cfg: cfg}
}

// LowConfidence exposes the configured low-confidence threshold for the
// pattern selector.
func (c *IntentClassifier) LowConfidence() float64 {
	return c.cfg.LowConfidence
}

// Classify computes the four raw category scores, applies conflict
// resolution, and normalizes. doc may be nil (no document: document
// relevance from content overlap is forced to zero). continuity is the
// repeated-topic signal in [0,1] from the continuity matcher.
func (c *IntentClassifier) Classify(text string, doc *DocumentContext, continuity float64) IntentScore {
	lower := strings.ToLower(text)

	offTopic := c.scoreOffTopic(lower)
	suppressed := offTopic >= c.cfg.OffTopicSuppression

	scores := map[IntentCategory]float64{
		IntentOffTopic: offTopic,
		IntentCasual:   c.scoreCasual(lower, offTopic),
		IntentDocument: c.scoreDocument(lower, doc, suppressed, continuity),
		IntentGeneral:  c.scoreGeneral(lower),
	}

	normalizeScores(scores)
	category, confidence := resolveCategory(scores)

	result := IntentScore{
		Scores:      scores,
		Category:    category,
		Confidence:  confidence,
		DataRequest: DetectDataRequest(lower),
	}

	slog.Debug("intent classified",
		"question", truncate(text, 50),
		"category", category,
		"confidence", confidence,
		"data_request", result.DataRequest,
	)
	return result
}

// ClassifyReduced is the degraded classification used by the simplified
// fallback tier: document-vs-not on a single coarse signal.
func (c *IntentClassifier) ClassifyReduced(text string, doc *DocumentContext) IntentScore {
	lower := strings.ToLower(text)

	score := 0.0
	if _, w := countMatches(lower, legalTerms); w > 0 {
		score += 0.5
	}
	if doc != nil && overlapRatio(lower, doc) > 0.2 {
		score += 0.5
	}

	category := IntentGeneral
	if score >= 0.5 {
		category = IntentDocument
	}
	return IntentScore{
		Scores:     map[IntentCategory]float64{IntentDocument: score, IntentGeneral: 1 - score},
		Category:   category,
		Confidence: 0.5,
	}
}

// scoreOffTopic combines off-topic subject cues, humor/whimsy cues
// (double weight) and the stylistic-transformation boost. The raw sum is
// scaled and capped just below certainty.
func (c *IntentClassifier) scoreOffTopic(lower string) float64 {
	_, subjectWeight := countMatches(lower, offTopicPatterns)
	_, playfulWeight := countMatches(lower, playfulPatterns)

	raw := subjectWeight + playfulWeight
	if containsAny(lower, styleTransformPhrases) {
		raw += c.cfg.StyleTransformBoost
	}
	if raw == 0 {
		return 0
	}
	return min(raw*0.4, 0.98)
}

// scoreCasual measures informality independent of topic. A strong
// off-topic signal owns the question: casualness then stays low so the
// two buckets do not compete for the same cues.
func (c *IntentClassifier) scoreCasual(lower string, offTopic float64) float64 {
	if offTopic >= c.cfg.OffTopicSuppression {
		return 0
	}

	level := 0.0
	hits := len(matchedWords(lower, casualWords))
	if hits > 0 {
		level += min(float64(hits)*0.2, 0.6)
	}
	// Brevity reads as casual, but a token-free input contributes no
	// signal: all raw scores stay zero so the document default applies.
	if n := len(tokenize(lower)); n > 0 && n < 5 {
		level += 0.2
	}
	return clamp01(level * 0.8)
}

// scoreDocument measures document relevance: keyword/entity overlap with
// the supplied document boosted by legal vocabulary. Overlap contribution
// is suppressed when the question is strongly off-topic.
func (c *IntentClassifier) scoreDocument(lower string, doc *DocumentContext, suppressed bool, continuity float64) float64 {
	score := 0.0

	legalHits, _ := countMatches(lower, legalTerms)
	hasQualifier := containsAny(lower, documentQualifiers)
	isDefinition := containsAny(lower, definitionPhrases)

	if !suppressed {
		if doc != nil {
			score += overlapRatio(lower, doc) * 0.5
		}
		if legalHits > 0 && !isDefinition {
			score += 0.5
		}
		if legalHits > 0 && containsWord(lower, questionWords) && !isDefinition {
			score += 0.3
		}
		if continuity > 0 {
			score += continuity * c.cfg.ContinuityBoost
		}
	}

	// Definition-style questions stay documental only when they carry a
	// document-specific qualifier.
	if isDefinition && hasQualifier && legalHits > 0 {
		score += 0.3
	}

	return score
}

// scoreGeneral measures definition-style general-knowledge phrasing:
// "what is X" with a known legal term, minus the document-qualifier
// penalty that routes it back to the document bucket.
func (c *IntentClassifier) scoreGeneral(lower string) float64 {
	isDefinition := containsAny(lower, definitionPhrases)
	hasGeneralTerm := containsAny(lower, generalLegalTerms)
	legalHits, _ := countMatches(lower, legalTerms)
	mtaHits, _ := countMatches(lower, mtaTerms)

	score := 0.0
	if isDefinition && (hasGeneralTerm || legalHits > 0 || mtaHits > 0) {
		if containsAny(lower, documentQualifiers) {
			score += 0.2 // qualifier penalty: most of the weight moves to document
		} else {
			score += 0.8
		}
	}
	if legalHits > 0 && !isDefinition {
		score += 0.2
	}
	return score
}

// overlapRatio is the fraction of question keywords found in the
// document text or title.
func overlapRatio(lower string, doc *DocumentContext) float64 {
	words := keywords(lower)
	if len(words) == 0 {
		return 0
	}
	text := strings.ToLower(doc.Text)
	title := strings.ToLower(doc.Title)

	matched := 0
	for _, w := range words {
		if strings.Contains(text, w) || strings.Contains(title, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}

// DetectDataRequest reports whether the input explicitly asks for
// tabular or exported output, using the tiered keyword tables.
func DetectDataRequest(lower string) bool {
	for _, p := range exportPhrasePatterns {
		if p.matches(lower) {
			return true
		}
	}
	for _, tier := range exportKeywordTiers {
		if tier.Weight >= 0.6 && containsAny(lower, tier.Keywords) {
			return true
		}
	}
	return false
}

// normalizeScores scales the map so scores sum to 1. A signal-free input
// defaults to document-related, the safest bucket to be wrong in.
func normalizeScores(scores map[IntentCategory]float64) {
	var total float64
	for _, v := range scores {
		total += v
	}
	if total == 0 {
		scores[IntentDocument] = 1
		return
	}
	for k, v := range scores {
		scores[k] = v / total
	}
}

// resolveCategory picks the top category with the fixed priority order
// breaking exact ties, and returns the top-two gap as confidence.
func resolveCategory(scores map[IntentCategory]float64) (IntentCategory, float64) {
	type ranked struct {
		category IntentCategory
		score    float64
	}
	all := make([]ranked, 0, len(scores))
	for c, s := range scores {
		all = append(all, ranked{c, s})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return intentPriority[all[i].category] < intentPriority[all[j].category]
	})

	confidence := all[0].score
	if len(all) > 1 {
		confidence = clamp01(all[0].score - all[1].score)
	}
	return all[0].category, confidence
}
