package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExporterServesPipelineMetrics(t *testing.T) {
	e := NewExporter(DefaultConfig())

	e.ObserveRespond("document", "full", 12*time.Millisecond)
	e.ObserveRespond("ambiguous", "simplified", 3*time.Millisecond)
	e.TierFallback("full")
	e.CacheHit()
	e.CacheMiss()
	e.ObserveTokens(150, 80)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	e.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "contractsense_pipeline_responses_total")
	assert.Contains(t, body, `pattern="document"`)
	assert.Contains(t, body, "contractsense_pipeline_tier_fallbacks_total")
	assert.Contains(t, body, "contractsense_pipeline_cache_hits_total 1")
	assert.Contains(t, body, "contractsense_llm_tokens_total")
}

func TestExporterIsolatedRegistry(t *testing.T) {
	a := NewExporter(DefaultConfig())
	b := NewExporter(DefaultConfig())

	a.CacheHit()

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "contractsense_pipeline_cache_hits_total 0")
}
