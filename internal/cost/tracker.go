// Package cost tracks model usage and estimates spend.
package cost

import (
	"math"
	"sync/atomic"
)

// Per-call estimate assumes an average command of 300 input and 150 output
// tokens, priced per million tokens.
const (
	avgInputTokens  = 300
	avgOutputTokens = 150

	fastInputPerM      = 1.0
	fastOutputPerM     = 5.0
	advancedInputPerM  = 3.0
	advancedOutputPerM = 15.0
)

var (
	// FastCallCost is the estimated cost of one fast-tier call in USD.
	FastCallCost = callCost(fastInputPerM, fastOutputPerM)

	// AdvancedCallCost is the estimated cost of one advanced-tier call in USD.
	AdvancedCallCost = callCost(advancedInputPerM, advancedOutputPerM)
)

func callCost(inPerM, outPerM float64) float64 {
	return avgInputTokens*inPerM/1_000_000 + avgOutputTokens*outPerM/1_000_000
}

// Tracker counts model calls per tier and cache hits. Counters only grow.
type Tracker struct {
	fast      atomic.Int64
	advanced  atomic.Int64
	cacheHits atomic.Int64

	promptCacheRead    atomic.Int64
	promptCacheCreated atomic.Int64
}

// NewTracker creates a new usage tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordFast counts a fast-tier selection.
func (t *Tracker) RecordFast() { t.fast.Add(1) }

// RecordAdvanced counts an advanced-tier selection.
func (t *Tracker) RecordAdvanced() { t.advanced.Add(1) }

// RecordCacheHit counts a response served from the cache.
func (t *Tracker) RecordCacheHit() { t.cacheHits.Add(1) }

// RecordPromptCache adds provider-side prompt cache token counts.
func (t *Tracker) RecordPromptCache(readTokens, creationTokens int) {
	t.promptCacheRead.Add(int64(readTokens))
	t.promptCacheCreated.Add(int64(creationTokens))
}

// Stats is a point-in-time usage summary.
type Stats struct {
	TotalCalls               int64   `json:"total_calls"`
	FastCalls                int64   `json:"fast_calls"`
	AdvancedCalls            int64   `json:"advanced_calls"`
	CacheHits                int64   `json:"cache_hits"`
	CacheSize                int     `json:"cache_size"`
	EstimatedCostUSD         float64 `json:"estimated_cost_usd"`
	FastPercentage           float64 `json:"fast_percentage"`
	PromptCacheReadTokens    int64   `json:"prompt_cache_read_tokens"`
	PromptCacheCreatedTokens int64   `json:"prompt_cache_creation_tokens"`
}

// Snapshot returns the current counters. cacheSize is supplied by the caller
// since the tracker does not own the cache.
func (t *Tracker) Snapshot(cacheSize int) Stats {
	fast := t.fast.Load()
	advanced := t.advanced.Load()
	total := fast + advanced

	s := Stats{
		TotalCalls:               total,
		FastCalls:                fast,
		AdvancedCalls:            advanced,
		CacheHits:                t.cacheHits.Load(),
		CacheSize:                cacheSize,
		EstimatedCostUSD:         round(float64(fast)*FastCallCost+float64(advanced)*AdvancedCallCost, 4),
		PromptCacheReadTokens:    t.promptCacheRead.Load(),
		PromptCacheCreatedTokens: t.promptCacheCreated.Load(),
	}
	if total > 0 {
		s.FastPercentage = round(float64(fast)/float64(total)*100, 1)
	}
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
