// Package metrics records in-memory timings and counters for the list
// core: header grouping, incremental change application, drag commits and
// sticky header translation.
//
// Collection is on by default and can be disabled with EXPANDABLE_METRICS=0.
//
//	func (a *Adapter[K]) rebuild() {
//	    defer metrics.Timer(metrics.GroupBuild)()
//	    ...
//	}
package metrics

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("EXPANDABLE_METRICS") != "0")
}

// Enabled returns whether metrics are collected.
func Enabled() bool { return enabled.Load() }

// SetEnabled turns collection on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric aggregates durations of one named operation.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

func (m *TimingMetric) Name() string { return m.name }

func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Reset clears all measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
}

// TimingStats is a snapshot of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
}

func (s TimingStats) String() string {
	return fmt.Sprintf("%-18s n=%-6d avg=%.3fms max=%.3fms", s.Name, s.Count, s.AvgMs, s.MaxMs)
}

// Stats returns a snapshot.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	s := TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(total) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
	}
	if count > 0 {
		s.AvgMs = float64(total/count) / 1e6
	}
	return s
}

// Timer returns a func that records the elapsed time when called.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Counter counts discrete events.
type Counter struct {
	name string
	n    atomic.Int64
}

func (c *Counter) Inc() {
	if Enabled() {
		c.n.Add(1)
	}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Value() int64 { return c.n.Load() }
func (c *Counter) Reset()       { c.n.Store(0) }

var (
	GroupBuild       = newTimingMetric("group_build")
	IncrementalApply = newTimingMetric("incremental_apply")
	DropCommit       = newTimingMetric("drop_commit")
	StickyTranslate  = newTimingMetric("sticky_translate")

	DeferredNotifications = &Counter{name: "deferred_notifications"}
	ConsistencyWarnings   = &Counter{name: "consistency_warnings"}
)

// AllTimingMetrics lists the registered timings.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{GroupBuild, IncrementalApply, DropCommit, StickyTranslate}
}

// AllCounters lists the registered counters.
func AllCounters() []*Counter {
	return []*Counter{DeferredNotifications, ConsistencyWarnings}
}

// AllTimingStats returns snapshots of metrics that have data.
func AllTimingStats() []TimingStats {
	var out []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			out = append(out, m.Stats())
		}
	}
	return out
}

// ResetAll clears every metric.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.Reset()
	}
}
