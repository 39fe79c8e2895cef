package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/openclerk/contractsense/cache"
)

// classificationCache memoizes full pipeline results. Identical
// questions against the same document resolve without re-running
// classification or composition. Keys hash the normalized question
// together with the document identity so a document swap never serves
// stale answers.
type classificationCache struct {
	responses *cache.LRU[string, *ComposedResponse]
	intents   *cache.LRU[string, IntentScore]
}

func newClassificationCache(capacity int, ttl time.Duration) *classificationCache {
	return &classificationCache{
		responses: cache.New[string, *ComposedResponse](capacity, ttl),
		intents:   cache.New[string, IntentScore](capacity, ttl),
	}
}

func cacheKey(normalized, docUID string) string {
	sum := sha256.Sum256([]byte(normalized + "\x00" + docUID))
	return hex.EncodeToString(sum[:])
}

func (c *classificationCache) getResponse(key string) (*ComposedResponse, bool) {
	if c == nil {
		return nil, false
	}
	return c.responses.Get(key)
}

func (c *classificationCache) putResponse(key string, resp *ComposedResponse) {
	if c == nil || resp == nil {
		return
	}
	// Terminal and error-recovery answers reflect transient failures
	// and must not be replayed once the underlying condition clears.
	if resp.Tier == TierTerminal || resp.Pattern == PatternErrorRecovery {
		return
	}
	c.responses.Set(key, resp, 0)
}

func (c *classificationCache) getIntent(key string) (IntentScore, bool) {
	if c == nil {
		return IntentScore{}, false
	}
	return c.intents.Get(key)
}

func (c *classificationCache) putIntent(key string, score IntentScore) {
	if c == nil {
		return
	}
	c.intents.Set(key, score, 0)
}

// Stats exposes the response-cache counters for metrics export.
func (c *classificationCache) stats() cache.Stats {
	if c == nil {
		return cache.Stats{}
	}
	return c.responses.Stats()
}
