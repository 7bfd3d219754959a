// Package stats tracks request statistics for the JARVIS services.
package stats

import (
	"runtime"
	"sync/atomic"
	"time"
)

// Collector counts processed commands, failures and latency.
type Collector struct {
	startTime     time.Time
	requestCount  atomic.Int64
	errorCount    atomic.Int64
	totalDuration atomic.Int64 // nanoseconds
	now           func() time.Time
}

// NewCollector creates a new stats collector.
func NewCollector() *Collector {
	return newCollector(time.Now)
}

func newCollector(now func() time.Time) *Collector {
	return &Collector{startTime: now(), now: now}
}

// Stats represents request statistics at a point in time.
type Stats struct {
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`

	RequestCount int64   `json:"request_count"`
	ErrorCount   int64   `json:"error_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// Collect returns current statistics.
func (c *Collector) Collect() *Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	requests := c.requestCount.Load()
	avgLatency := float64(0)
	if requests > 0 {
		avgLatency = float64(c.totalDuration.Load()) / float64(requests) / 1e6
	}
	uptime := c.now().Sub(c.startTime)

	return &Stats{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: uptime.Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   bytesToMB(int64(m.HeapAlloc)),
		RequestCount:  requests,
		ErrorCount:    c.errorCount.Load(),
		AvgLatencyMs:  avgLatency,
	}
}

// RecordRequest records a processed command and its duration.
func (c *Collector) RecordRequest(duration time.Duration) {
	c.requestCount.Add(1)
	c.totalDuration.Add(duration.Nanoseconds())
}

// RecordError records a command that ended in a failure result.
func (c *Collector) RecordError() {
	c.errorCount.Add(1)
}

// StartTime returns when the collector started.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

func bytesToMB(b int64) float64 {
	return float64(b) / 1024 / 1024
}
