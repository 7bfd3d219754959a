package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyIsDeterministicAndSeparated(t *testing.T) {
	assert.Equal(t, Key("sys", "prompt", "m1"), Key("sys", "prompt", "m1"))
	assert.NotEqual(t, Key("sys", "prompt", "m1"), Key("sys", "prompt", "m2"))
	assert.NotEqual(t, Key("ab", "c", "m"), Key("a", "bc", "m"))
	assert.Len(t, Key("", "", ""), 64)
}

func TestGetPut(t *testing.T) {
	c := New(nil)
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Put("k", "v1", "fast")
	c.Put("k", "v2", "fast")
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, c.Len())
}

func TestExpiryOnRead(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := New(&Config{Enabled: true, TTL: time.Hour, Now: func() time.Time { return now }})
	c.Put("k", "v", "advanced")

	now = now.Add(59 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestDisabled(t *testing.T) {
	c := New(&Config{Enabled: false})
	c.Put("k", "v", "fast")
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
	assert.False(t, c.Enabled())
}

func TestConcurrentAccess(t *testing.T) {
	c := New(nil)
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			c.Put(key, "v", "fast")
			c.Get(key)
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, c.Len())
}
