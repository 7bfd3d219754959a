package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newCollector(func() time.Time { return now })

	c.RecordRequest(10 * time.Millisecond)
	c.RecordRequest(30 * time.Millisecond)
	c.RecordError()
	now = now.Add(90 * time.Second)

	s := c.Collect()
	assert.Equal(t, int64(2), s.RequestCount)
	assert.Equal(t, int64(1), s.ErrorCount)
	assert.InDelta(t, 20.0, s.AvgLatencyMs, 0.001)
	assert.Equal(t, "1m30s", s.Uptime)
	assert.Equal(t, 90.0, s.UptimeSeconds)
	assert.Positive(t, s.Goroutines)
}

func TestCollectEmpty(t *testing.T) {
	s := NewCollector().Collect()
	assert.Zero(t, s.RequestCount)
	assert.Zero(t, s.AvgLatencyMs)
}
