package model

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flynn-ai/jarvis/internal/cache"
	"github.com/flynn-ai/jarvis/internal/cost"
)

// fakeProvider records requests and answers from a function.
type fakeProvider struct {
	mu        sync.Mutex
	available bool
	requests  []*Request
	respond   func(*Request) (*Response, error)
}

func (f *fakeProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond == nil {
		return &Response{Text: "reply:" + req.Model}, nil
	}
	return f.respond(req)
}

func (f *fakeProvider) IsAvailable() bool { return f.available }
func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Status() *ModelStatus { return &ModelStatus{Name: "fake", Available: f.available} }
func (f *fakeProvider) calls() int { f.mu.Lock(); defer f.mu.Unlock(); return len(f.requests) }
func (f *fakeProvider) last() *Request { f.mu.Lock(); defer f.mu.Unlock(); return f.requests[len(f.requests)-1] }

func newTestGateway(p Model, c *cache.Cache) *Gateway {
	return NewGateway(&GatewayConfig{
		Provider:      p,
		Cache:         c,
		FastModel:     "fast-model",
		AdvancedModel: "advanced-model",
		Threshold:     0.8,
		Logger:        zerolog.Nop(),
	})
}

func TestTierThresholdBoundary(t *testing.T) {
	p := &fakeProvider{available: true}
	g := newTestGateway(p, nil)

	assert.Equal(t, TierFast, g.TierFor(0.79))
	assert.Equal(t, TierAdvanced, g.TierFor(0.8))
	assert.Equal(t, TierAdvanced, g.TierFor(1.0))

	_, err := g.Complete(context.Background(), &CompletionRequest{Prompt: "a", Complexity: 0.8})
	require.NoError(t, err)
	assert.Equal(t, "advanced-model", p.last().Model)

	_, err = g.Complete(context.Background(), &CompletionRequest{Prompt: "b", Complexity: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "fast-model", p.last().Model)

	s := g.Stats()
	assert.Equal(t, int64(1), s.AdvancedCalls)
	assert.Equal(t, int64(1), s.FastCalls)
}

func TestCacheHitSkipsProviderButCountsTier(t *testing.T) {
	p := &fakeProvider{available: true}
	g := newTestGateway(p, nil)
	req := &CompletionRequest{Prompt: "same", System: "sys", Complexity: 0.3}

	first, err := g.Complete(context.Background(), req)
	require.NoError(t, err)
	second, err := g.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.calls())

	s := g.Stats()
	assert.Equal(t, int64(2), s.FastCalls)
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, 1, s.CacheSize)
	assert.Equal(t, 0.0021, s.EstimatedCostUSD)
	assert.Equal(t, 100.0, s.FastPercentage)
}

func TestCacheKeyIncludesTierModel(t *testing.T) {
	p := &fakeProvider{available: true}
	g := newTestGateway(p, nil)

	_, _ = g.Complete(context.Background(), &CompletionRequest{Prompt: "p", Complexity: 0.1})
	_, _ = g.Complete(context.Background(), &CompletionRequest{Prompt: "p", Complexity: 0.9})
	assert.Equal(t, 2, p.calls())
}

func TestExpiredEntryRefetches(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := cache.New(&cache.Config{Enabled: true, TTL: time.Hour, Now: func() time.Time { return now }})
	p := &fakeProvider{available: true}
	g := newTestGateway(p, c)
	req := &CompletionRequest{Prompt: "p", Complexity: 0.1}

	_, _ = g.Complete(context.Background(), req)
	now = now.Add(2 * time.Hour)
	_, _ = g.Complete(context.Background(), req)

	assert.Equal(t, 2, p.calls())
	assert.Zero(t, g.Stats().CacheHits)
}

func TestMissingCredentialsIsUnavailableWithoutCounting(t *testing.T) {
	g := newTestGateway(&fakeProvider{available: false}, nil)

	_, err := g.Complete(context.Background(), &CompletionRequest{Prompt: "p", Complexity: 0.9})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, g.Stats().TotalCalls)
	assert.False(t, g.Available())

	_, err = NewGateway(nil).Complete(context.Background(), &CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestProviderFailureIsUnavailableAndNotCached(t *testing.T) {
	boom := fmt.Errorf("503 from provider")
	p := &fakeProvider{available: true, respond: func(*Request) (*Response, error) { return nil, boom }}
	g := newTestGateway(p, nil)

	_, err := g.Complete(context.Background(), &CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, g.Stats().CacheSize)
	assert.Equal(t, int64(1), g.Stats().FastCalls)
}

func TestCallTimeout(t *testing.T) {
	p := &fakeProvider{available: true, respond: func(r *Request) (*Response, error) {
		return nil, context.DeadlineExceeded
	}}
	g := NewGateway(&GatewayConfig{Provider: p, Timeout: 10 * time.Millisecond, Logger: zerolog.Nop()})

	_, err := g.Complete(context.Background(), &CompletionRequest{Prompt: "p"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPromptCachingForwardedAndRecorded(t *testing.T) {
	tracker := cost.NewTracker()
	p := &fakeProvider{available: true, respond: func(r *Request) (*Response, error) {
		return &Response{Text: "analysis", Usage: Usage{CacheCreationInputTokens: 1500}}, nil
	}}
	g := NewGateway(&GatewayConfig{Provider: p, Tracker: tracker, Logger: zerolog.Nop()})

	_, err := g.Complete(context.Background(), &CompletionRequest{
		Prompt: "task", System: "skill", Complexity: 0.9, MaxTokens: 4000, PromptCaching: true,
	})
	require.NoError(t, err)

	req := p.last()
	assert.True(t, req.CacheSystem)
	assert.Equal(t, "skill", req.System)
	assert.Equal(t, 4000, req.MaxTokens)
	assert.Equal(t, int64(1500), tracker.Snapshot(0).PromptCacheCreatedTokens)
}

func TestDisabledCacheAlwaysCallsProvider(t *testing.T) {
	p := &fakeProvider{available: true}
	g := newTestGateway(p, cache.New(&cache.Config{Enabled: false}))
	req := &CompletionRequest{Prompt: "p"}

	_, _ = g.Complete(context.Background(), req)
	_, _ = g.Complete(context.Background(), req)
	assert.Equal(t, 2, p.calls())
}
