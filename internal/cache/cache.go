// Package cache provides the in-process response cache for model completions.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a completion stays valid.
const DefaultTTL = time.Hour

// Entry is a cached completion.
type Entry struct {
	Value     string
	CreatedAt time.Time
	Tier      string
}

// Config configures the cache.
type Config struct {
	Enabled bool
	TTL     time.Duration
	Now     func() time.Time
}

// Cache maps prompt keys to completions. Entries expire lazily on lookup;
// nothing else evicts them.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	enabled bool
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache. A nil cfg gives an enabled cache with DefaultTTL.
func New(cfg *Config) *Cache {
	if cfg == nil {
		cfg = &Config{Enabled: true}
	}
	c := &Cache{
		entries: make(map[string]Entry),
		enabled: cfg.Enabled,
		ttl:     cfg.TTL,
		now:     cfg.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Key hashes the system prompt, prompt and model id into a cache key.
func Key(system, prompt, model string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{system, prompt, model}, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached value for key. Expired entries are removed.
func (c *Cache) Get(key string) (string, bool) {
	if !c.enabled {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().Sub(e.CreatedAt) >= c.ttl {
		delete(c.entries, key)
		return "", false
	}
	return e.Value, true
}

// Put stores value under key. Last write wins.
func (c *Cache) Put(key, value, tier string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	c.entries[key] = Entry{Value: value, CreatedAt: c.now(), Tier: tier}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}
