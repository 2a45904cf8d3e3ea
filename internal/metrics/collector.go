// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpStore  = "store"
	OpRecall = "recall"
	OpBloom  = "bloom"
	OpTick   = "tick"
	OpSave   = "save"
	OpLoad   = "load"
)

// Counter names for the collector.
const (
	CounterEvictions   = "evictions"
	CounterScans       = "similarity_scans"
	CounterCacheHits   = "cache_hits"
	CounterCacheMisses = "cache_misses"
	CounterUnderRatio  = "under_ratio_contents"
)

// OperationMetrics holds aggregated timing for a single operation type.
type OperationMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Name        string
	Count       int64
	Errors      int64
	TotalTimeUs int64
	AvgTimeUs   float64
	MinTimeUs   int64
	MaxTimeUs   int64
}

// Snapshot represents collected statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Operations    []OperationSnapshot // sorted by name
	Counters      map[string]int64
}

// Operation returns the snapshot for op, or nil if it never ran.
func (s Snapshot) Operation(op string) *OperationSnapshot {
	for i := range s.Operations {
		if s.Operations[i].Name == op {
			return &s.Operations[i]
		}
	}
	return nil
}

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	counters  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		counters:  make(map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation. A non-nil err counts as a
// failed call.
func (c *Collector) RecordTiming(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if err != nil {
		m.Errors++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Add increments a named counter.
func (c *Collector) Add(counter string, n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[counter] += n
}

// snapshotOp creates a snapshot for an operation.
func snapshotOp(name string, m *OperationMetrics) OperationSnapshot {
	return OperationSnapshot{
		Name:        name,
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeUs: m.TotalTime.Microseconds(),
		AvgTimeUs:   float64(m.TotalTime.Microseconds()) / float64(m.Count),
		MinTimeUs:   m.MinTime.Microseconds(),
		MaxTimeUs:   m.MaxTime.Microseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Operations:    make([]OperationSnapshot, 0, len(c.ops)),
		Counters:      make(map[string]int64, len(c.counters)),
	}
	for name, m := range c.ops {
		if m.Count == 0 {
			continue
		}
		snap.Operations = append(snap.Operations, snapshotOp(name, m))
	}
	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Name < snap.Operations[j].Name
	})
	for k, v := range c.counters {
		snap.Counters[k] = v
	}
	return snap
}
