package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openclerk/contractsense/cache"
)

// Metrics receives pipeline observations. Implementations must be safe
// for concurrent use. A nil Metrics in Dependencies disables reporting.
type Metrics interface {
	ObserveRespond(pattern, tier string, elapsed time.Duration)
	TierFallback(tier string)
	CacheHit()
	CacheMiss()
}

type nopMetrics struct{}

func (nopMetrics) ObserveRespond(string, string, time.Duration) {}
func (nopMetrics) TierFallback(string)                          {}
func (nopMetrics) CacheHit()                                    {}
func (nopMetrics) CacheMiss()                                   {}

// Config tunes the pipeline. Zero values take defaults.
type Config struct {
	Classifier    ClassifierConfig
	CacheCapacity int
	CacheTTL      time.Duration
	TierBudget    time.Duration
	HistoryLimit  int
}

// DefaultConfig returns the standard pipeline tuning.
func DefaultConfig() Config {
	return Config{
		Classifier:    DefaultClassifierConfig(),
		CacheCapacity: 2048,
		CacheTTL:      15 * time.Minute,
		TierBudget:    defaultTierBudget,
		HistoryLimit:  continuityTurnLimit,
	}
}

// Dependencies are the external collaborators. All of them are
// optional: the pipeline degrades to document-free, history-free,
// heuristic operation when they are absent.
type Dependencies struct {
	Documents DocumentProvider
	Store     ConversationStore
	Generator Generator
	Exporter  Exporter
	Metrics   Metrics
}

// Service is the question-answering pipeline facade. Respond never
// returns an error: every failure mode degrades to a lower response
// tier, ending at a fixed terminal answer.
type Service struct {
	cfg Config

	input      *InputProcessor
	tone       *ToneProfiler
	classifier *IntentClassifier
	selector   *PatternSelector
	composer   *ResponseComposer
	continuity *ContinuityMatcher

	docs    DocumentProvider
	store   ConversationStore
	metrics Metrics
	cache   *classificationCache
}

// NewService wires the pipeline.
func NewService(cfg Config, deps Dependencies) *Service {
	def := DefaultConfig()
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = def.CacheCapacity
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.TierBudget <= 0 {
		cfg.TierBudget = def.TierBudget
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}

	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}

	classifier := NewIntentClassifier(cfg.Classifier)

	return &Service{
		cfg:        cfg,
		input:      NewInputProcessor(),
		tone:       NewToneProfiler(),
		classifier: classifier,
		selector:   NewPatternSelector(classifier.LowConfidence()),
		composer:   NewResponseComposer(deps.Generator, deps.Exporter),
		continuity: NewContinuityMatcher(),
		docs:       deps.Documents,
		store:      deps.Store,
		metrics:    metrics,
		cache:      newClassificationCache(cfg.CacheCapacity, cfg.CacheTTL),
	}
}

// Respond answers a question in a session. It always returns a usable
// response; the Tier field records how much of the pipeline survived.
func (s *Service) Respond(ctx context.Context, question, sessionUID string) *ComposedResponse {
	start := time.Now()

	input := s.input.Normalize(question)
	doc := s.loadDocument(ctx, sessionUID)

	docUID := ""
	if doc != nil {
		docUID = doc.UID
	}
	key := cacheKey(input.Normalized, docUID)
	if cached, ok := s.cache.getResponse(key); ok {
		s.metrics.CacheHit()
		s.recordTurn(ctx, sessionUID, input.Raw, cached)
		return cached
	}
	s.metrics.CacheMiss()

	req := &request{
		sessionUID: sessionUID,
		input:      input,
		doc:        doc,
		turns:      s.loadHistory(ctx, sessionUID),
	}

	resp := s.respondWithFallback(ctx, req)

	s.cache.putResponse(key, resp)
	s.recordTurn(ctx, sessionUID, input.Raw, resp)
	s.metrics.ObserveRespond(string(resp.Pattern), string(resp.Tier), time.Since(start))
	return resp
}

// Classify runs normalization and intent scoring without composing a
// response. Used by the inspection endpoint and by tests.
func (s *Service) Classify(ctx context.Context, question, sessionUID string) (NormalizedInput, IntentScore, ToneProfile) {
	input := s.input.Normalize(question)
	doc := s.loadDocument(ctx, sessionUID)

	docUID := ""
	if doc != nil {
		docUID = doc.UID
	}
	key := cacheKey(input.Normalized, docUID)

	tone := s.tone.Profile(input.Normalized)
	intent, ok := s.cache.getIntent(key)
	if !ok {
		continuity := s.continuity.Score(input.Normalized, s.loadHistory(ctx, sessionUID))
		intent = s.classifier.Classify(input.Normalized, doc, continuity)
		s.cache.putIntent(key, intent)
	}
	return input, intent, tone
}

// CacheStats exposes response-cache counters for metrics export.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.stats()
}

// Explain summarizes how a response was produced.
func Explain(resp *ComposedResponse) Explanation {
	if resp == nil {
		return Explanation{Tier: TierTerminal, Pattern: PatternErrorRecovery}
	}
	return Explanation{
		Tier:       resp.Tier,
		Pattern:    resp.Pattern,
		Confidence: resp.Confidence,
	}
}

// respondFull is the complete pipeline: concurrent tone profiling and
// continuity scoring, full classification, pattern selection and
// composition with all collaborators.
func (s *Service) respondFull(ctx context.Context, req *request) (*ComposedResponse, error) {
	var (
		tone       ToneProfile
		continuity float64
		g          errgroup.Group
	)
	g.Go(func() error {
		tone = s.tone.Profile(req.input.Normalized)
		return nil
	})
	g.Go(func() error {
		continuity = s.continuity.Score(req.input.Normalized, req.turns)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	intent := s.classifier.Classify(req.input.Normalized, req.doc, continuity)
	pattern := s.selector.Select(intent, tone, req.input.Flags, intent.DataRequest)

	return s.composer.Compose(ctx, pattern, intent, tone, req.input, req.doc)
}

// respondSimplified drops history and tone nuance, and classifies with
// the reduced keyword rule set. The generator is still attempted once;
// its failure degrades the chain further.
func (s *Service) respondSimplified(ctx context.Context, req *request) (*ComposedResponse, error) {
	intent := s.classifier.ClassifyReduced(req.input.Normalized, req.doc)

	pattern := PatternGeneralLegal
	if intent.Category == IntentDocument {
		pattern = PatternDocument
	}

	tone := ToneProfile{Dominant: ToneFormal}
	return s.composer.Compose(ctx, pattern, intent, tone, req.input, req.doc)
}

// respondMinimal ignores the document entirely and answers from the
// built-in topic knowledge.
func (s *Service) respondMinimal(ctx context.Context, req *request) (*ComposedResponse, error) {
	intent := IntentScore{
		Scores:     map[IntentCategory]float64{IntentGeneral: 1},
		Category:   IntentGeneral,
		Confidence: 0.3,
	}
	tone := ToneProfile{Dominant: ToneFormal}

	// Single-part view of the question: minimal answers never split.
	input := NormalizedInput{
		Raw:        req.input.Raw,
		Normalized: req.input.Normalized,
		Parts:      []QuestionPart{{Index: 0, Text: req.input.Raw}},
	}
	return s.composer.Compose(ctx, PatternGeneralLegal, intent, tone, input, nil)
}

// loadDocument fetches the session document. Any failure means no
// document context, never a failed request.
func (s *Service) loadDocument(ctx context.Context, sessionUID string) (doc *DocumentContext) {
	if s.docs == nil || sessionUID == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("document provider panicked", "session", sessionUID, "recovered", r)
			doc = nil
		}
	}()
	doc, err := s.docs.GetDocument(ctx, sessionUID)
	if err != nil {
		slog.Warn("document lookup failed, answering without context",
			"session", sessionUID, "error", err)
		return nil
	}
	return doc
}

func (s *Service) loadHistory(ctx context.Context, sessionUID string) (turns []Turn) {
	if s.store == nil || sessionUID == "" {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("conversation store panicked", "session", sessionUID, "recovered", r)
			turns = nil
		}
	}()
	turns, err := s.store.RecentTurns(ctx, sessionUID, s.cfg.HistoryLimit)
	if err != nil {
		slog.Warn("history lookup failed", "session", sessionUID, "error", err)
		return nil
	}
	return turns
}

// recordTurn persists the exchange. Respond calls it exactly once per
// request regardless of which tier answered.
func (s *Service) recordTurn(ctx context.Context, sessionUID, question string, resp *ComposedResponse) {
	if s.store == nil || sessionUID == "" || strings.TrimSpace(question) == "" {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("conversation store panicked", "session", sessionUID, "recovered", r)
		}
	}()
	err := s.store.AppendTurn(ctx, sessionUID, Turn{
		Question: question,
		Pattern:  resp.Pattern,
		Tone:     resp.Tone,
		Tier:     resp.Tier,
	})
	if err != nil {
		slog.Warn("failed to record conversation turn",
			"session", sessionUID, "error", err)
	}
}
