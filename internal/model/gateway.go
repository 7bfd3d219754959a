package model

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/flynn-ai/jarvis/internal/cache"
	"github.com/flynn-ai/jarvis/internal/cost"
	"github.com/flynn-ai/jarvis/internal/errors"
)

// ErrUnavailable is returned when no completion could be produced:
// missing credentials, provider failure, timeout or an open breaker.
// Callers always have a fallback for it.
var ErrUnavailable = errors.New(errors.CodeModelUnavailable, "model gateway unavailable", errors.CategoryTemporary)

// DefaultComplexityThreshold is the complexity at which the advanced tier
// is selected.
const DefaultComplexityThreshold = 0.8

// CompletionRequest is what components ask the gateway for.
type CompletionRequest struct {
	Prompt     string
	System     string
	Complexity float64
	MaxTokens  int

	// PromptCaching sends the system prompt as a provider cache block.
	PromptCaching bool
}

// GatewayConfig configures the gateway.
type GatewayConfig struct {
	Provider      Model
	Cache         *cache.Cache
	Tracker       *cost.Tracker
	FastModel     string
	AdvancedModel string
	Threshold     float64
	Timeout       time.Duration
	Logger        zerolog.Logger
}

// Gateway selects a model tier by complexity, serves repeated prompts from
// the response cache and counts usage. It never retries.
type Gateway struct {
	provider      Model
	cache         *cache.Cache
	tracker       *cost.Tracker
	fastModel     string
	advancedModel string
	threshold     float64
	timeout       time.Duration
	log           zerolog.Logger
}

// NewGateway creates a gateway. Nil cache and tracker get fresh instances.
func NewGateway(cfg *GatewayConfig) *Gateway {
	if cfg == nil {
		cfg = &GatewayConfig{}
	}
	g := &Gateway{
		provider:      cfg.Provider,
		cache:         cfg.Cache,
		tracker:       cfg.Tracker,
		fastModel:     cfg.FastModel,
		advancedModel: cfg.AdvancedModel,
		threshold:     cfg.Threshold,
		timeout:       cfg.Timeout,
		log:           cfg.Logger.With().Str("component", "gateway").Logger(),
	}
	if g.cache == nil {
		g.cache = cache.New(nil)
	}
	if g.tracker == nil {
		g.tracker = cost.NewTracker()
	}
	if g.threshold <= 0 {
		g.threshold = DefaultComplexityThreshold
	}
	if g.timeout <= 0 {
		g.timeout = 30 * time.Second
	}
	return g
}

// TierFor returns the tier for a complexity score without counting it.
func (g *Gateway) TierFor(complexity float64) Tier {
	if complexity >= g.threshold {
		return TierAdvanced
	}
	return TierFast
}

// selectTier picks the tier and counts the selection, cache hit or not.
func (g *Gateway) selectTier(complexity float64) (Tier, string) {
	tier := g.TierFor(complexity)
	if tier == TierAdvanced {
		g.tracker.RecordAdvanced()
		g.log.Debug().Str("model", g.advancedModel).Float64("complexity", complexity).Msg("selected advanced tier")
		return tier, g.advancedModel
	}
	g.tracker.RecordFast()
	g.log.Debug().Str("model", g.fastModel).Float64("complexity", complexity).Msg("selected fast tier")
	return tier, g.fastModel
}

// Complete returns completion text or an error wrapping ErrUnavailable.
func (g *Gateway) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	if g.provider == nil || !g.provider.IsAvailable() {
		return "", ErrUnavailable
	}

	tier, modelID := g.selectTier(req.Complexity)

	key := cache.Key(req.System, req.Prompt, modelID)
	if text, ok := g.cache.Get(key); ok {
		g.tracker.RecordCacheHit()
		g.log.Info().Str("tier", string(tier)).Msg("response cache hit")
		return text, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Generate(callCtx, &Request{
		Model:       modelID,
		System:      req.System,
		Prompt:      req.Prompt,
		MaxTokens:   req.MaxTokens,
		CacheSystem: req.PromptCaching,
	})
	if err != nil {
		g.log.Warn().Err(err).Str("model", modelID).Str("code", errors.GetCode(err)).Msg("completion failed")
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if req.PromptCaching {
		g.recordPromptCache(resp.Usage)
	}

	g.cache.Put(key, resp.Text, string(tier))
	return resp.Text, nil
}

func (g *Gateway) recordPromptCache(u Usage) {
	g.tracker.RecordPromptCache(u.CacheReadInputTokens, u.CacheCreationInputTokens)
	switch {
	case u.CacheReadInputTokens > 0:
		g.log.Info().Int("tokens", u.CacheReadInputTokens).Msg("prompt cache hit")
	case u.CacheCreationInputTokens > 0:
		g.log.Info().Int("tokens", u.CacheCreationInputTokens).Msg("prompt cache miss, block written")
	}
}

// Available reports whether the provider has credentials.
func (g *Gateway) Available() bool {
	return g.provider != nil && g.provider.IsAvailable()
}

// Stats returns usage counters and the estimated cost.
func (g *Gateway) Stats() cost.Stats {
	return g.tracker.Snapshot(g.cache.Len())
}

// Status returns the provider status, if any.
func (g *Gateway) Status() *ModelStatus {
	if g.provider == nil {
		return &ModelStatus{Name: "none"}
	}
	return g.provider.Status()
}
