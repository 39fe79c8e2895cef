package engine

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDocProvider struct {
	doc   *DocumentContext
	err   error
	panic bool
}

func (p *stubDocProvider) GetDocument(ctx context.Context, sessionUID string) (*DocumentContext, error) {
	if p.panic {
		panic("provider exploded")
	}
	return p.doc, p.err
}

type memoryStore struct {
	mu      sync.Mutex
	turns   map[string][]Turn
	err     error
	appends int
	recents int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{turns: make(map[string][]Turn)}
}

func (s *memoryStore) RecentTurns(ctx context.Context, sessionUID string, limit int) ([]Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recents++
	if s.err != nil {
		return nil, s.err
	}
	turns := s.turns[sessionUID]
	if len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return turns, nil
}

func (s *memoryStore) AppendTurn(ctx context.Context, sessionUID string, turn Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends++
	if s.err != nil {
		return s.err
	}
	s.turns[sessionUID] = append(s.turns[sessionUID], turn)
	return nil
}

func newTestService(deps Dependencies) *Service {
	return NewService(DefaultConfig(), deps)
}

func TestRespondNeverFails(t *testing.T) {
	svc := newTestService(Dependencies{})

	inputs := []string{
		"",
		"   ",
		"\x00garbage\x01",
		strings.Repeat("what? ", 10000),
		"who are the parties in this agreement?",
		"tell me a joke",
	}
	for _, in := range inputs {
		resp := svc.Respond(context.Background(), in, "s1")
		require.NotNil(t, resp, "input %q", truncate(in, 30))
		assert.NoError(t, validateResponse(resp), "input %q", truncate(in, 30))
		assert.NotEmpty(t, resp.Tier)
	}
}

func TestRespondFullTierWithDocument(t *testing.T) {
	provider := &stubDocProvider{doc: mtaDocument()}
	svc := newTestService(Dependencies{Documents: provider})

	resp := svc.Respond(context.Background(), "Who are the parties in this agreement?", "s1")

	assert.Equal(t, TierFull, resp.Tier)
	assert.Equal(t, PatternDocument, resp.Pattern)
	assert.NotEmpty(t, resp.Section(SectionEvidence))
}

func TestRespondSurvivesDocumentProviderFailure(t *testing.T) {
	provider := &stubDocProvider{err: errors.New("database down")}
	svc := newTestService(Dependencies{Documents: provider})

	resp := svc.Respond(context.Background(), "What are the payment terms?", "s1")

	require.NotNil(t, resp)
	assert.NoError(t, validateResponse(resp))
	assert.NotContains(t, resp.Content, "database down")
}

func TestRespondSurvivesDocumentProviderPanic(t *testing.T) {
	provider := &stubDocProvider{panic: true}
	svc := newTestService(Dependencies{Documents: provider})

	resp := svc.Respond(context.Background(), "What are the payment terms?", "s1")

	require.NotNil(t, resp)
	assert.NoError(t, validateResponse(resp))
}

func TestRespondSurvivesStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("disk full")
	svc := newTestService(Dependencies{Store: store})

	resp := svc.Respond(context.Background(), "Can I terminate the agreement?", "s1")

	require.NotNil(t, resp)
	assert.NoError(t, validateResponse(resp))
}

func TestRespondRecordsExactlyOneTurn(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(Dependencies{Store: store})

	svc.Respond(context.Background(), "What are the payment terms?", "s1")

	assert.Equal(t, 1, store.appends)
	turns, err := store.RecentTurns(context.Background(), "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "What are the payment terms?", turns[0].Question)
	assert.NotEmpty(t, turns[0].Pattern)
}

func TestRespondCachesRepeatedQuestions(t *testing.T) {
	provider := &stubDocProvider{doc: mtaDocument()}
	svc := newTestService(Dependencies{Documents: provider})

	first := svc.Respond(context.Background(), "Who are the parties in this agreement?", "s1")
	second := svc.Respond(context.Background(), "Who are the parties in this agreement?", "s1")

	assert.Equal(t, first, second)
	stats := svc.CacheStats()
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestRespondCachedAnswerStillRecordsTurn(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(Dependencies{Store: store})

	svc.Respond(context.Background(), "What are the payment terms?", "s1")
	svc.Respond(context.Background(), "What are the payment terms?", "s1")

	assert.Equal(t, 2, store.appends)
}

func TestRespondDeterministic(t *testing.T) {
	provider := &stubDocProvider{doc: mtaDocument()}

	question := "Can I terminate the agreement and what about payment?"
	var first *ComposedResponse
	for i := 0; i < 10; i++ {
		// Fresh service each round so the cache cannot mask drift.
		svc := newTestService(Dependencies{Documents: provider})
		resp := svc.Respond(context.Background(), question, "s1")
		if first == nil {
			first = resp
			continue
		}
		assert.Equal(t, first.Pattern, resp.Pattern)
		assert.Equal(t, first.Content, resp.Content)
	}
}

func TestRespondDataRequestProducesTable(t *testing.T) {
	svc := newTestService(Dependencies{
		Documents: &stubDocProvider{doc: mtaDocument()},
		Exporter:  &stubExporter{url: "/exports/x.csv"},
	})

	resp := svc.Respond(context.Background(), "Can you give me a csv of the payment terms?", "s1")

	assert.Equal(t, PatternDataTable, resp.Pattern)
	assert.True(t, resp.ExportRequested)
	assert.Equal(t, "/exports/x.csv", resp.ExportURL)
}

func TestRespondAmbiguousQuestion(t *testing.T) {
	svc := newTestService(Dependencies{Documents: &stubDocProvider{doc: mtaDocument()}})

	resp := svc.Respond(context.Background(), "What about it and that thing we discussed?", "s1")

	assert.Equal(t, PatternAmbiguous, resp.Pattern)
	assert.GreaterOrEqual(t, strings.Count(resp.Content, "Option"), 2)
}

func TestClassifyEndpointShape(t *testing.T) {
	svc := newTestService(Dependencies{Documents: &stubDocProvider{doc: mtaDocument()}})

	input, intent, tone := svc.Classify(context.Background(), "Who are the parties in this agreement?", "s1")

	assert.NotEmpty(t, input.Parts)
	assert.Equal(t, IntentDocument, intent.Category)
	assert.NotEmpty(t, tone.Dominant)
}

func TestExplain(t *testing.T) {
	resp := &ComposedResponse{Pattern: PatternDocument, Tier: TierFull, Confidence: 0.8}

	got := Explain(resp)
	assert.Equal(t, TierFull, got.Tier)
	assert.Equal(t, PatternDocument, got.Pattern)
	assert.InDelta(t, 0.8, got.Confidence, 1e-9)

	missing := Explain(nil)
	assert.Equal(t, TierTerminal, missing.Tier)
	assert.Equal(t, PatternErrorRecovery, missing.Pattern)
}

func TestContinuityScore(t *testing.T) {
	m := NewContinuityMatcher()
	turns := []Turn{{
		Question: "what are the payment terms in the agreement",
		Pattern:  PatternDocument,
	}}

	related := m.Score("what about the payment schedule", turns)
	unrelated := m.Score("zebra xylophone quartz", turns)

	assert.Greater(t, related, unrelated)
	assert.Zero(t, m.Score("anything", nil))
}

func TestRespondLoadsHistoryOnce(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(Dependencies{Store: store})

	svc.Respond(context.Background(), "What are the payment terms?", "s1")

	assert.Equal(t, 1, store.recents)
}

type failingGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *failingGenerator) Generate(ctx context.Context, question, documentContext string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return "", errors.New("model unavailable")
}

func TestRespondAllGeneratorFailuresReachTerminal(t *testing.T) {
	gen := &failingGenerator{}
	svc := newTestService(Dependencies{
		Documents: &stubDocProvider{doc: mtaDocument()},
		Generator: gen,
	})

	resp := svc.Respond(context.Background(), "What are the payment terms in this agreement?", "s1")

	require.NotNil(t, resp)
	assert.Equal(t, TierTerminal, resp.Tier)
	assert.Equal(t, PatternErrorRecovery, resp.Pattern)
	assert.NotEmpty(t, resp.Content)
	assert.NotContains(t, resp.Content, "model unavailable")
	// One generator attempt per degradable tier.
	assert.Equal(t, 3, gen.calls)
}
