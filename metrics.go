package molparse

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks parser activity using lock-free atomic operations.
// All methods are safe for concurrent use.
type Metrics struct {
	// Parse counts
	parsesTotal    atomic.Uint64
	parsesAccepted atomic.Uint64
	parsesRejected atomic.Uint64

	// Timing (stored as nanoseconds)
	parseTimeTotal atomic.Uint64
	parseTimeMin   atomic.Uint64
	parseTimeMax   atomic.Uint64

	// Cache metrics
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Accumulator metrics
	atomsCounted     atomic.Uint64
	structuralFaults atomic.Uint64

	// Per-rule stats
	rules sync.Map // map[string]*ruleMetrics
}

// ruleMetrics tracks one validation rule.
type ruleMetrics struct {
	checks     atomic.Uint64
	rejections atomic.Uint64
	totalTime  atomic.Uint64 // nanoseconds
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.parseTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordParse records a completed parse. accepted is false when the formula
// was rejected by validation or by a strict-mode fault.
func (m *Metrics) RecordParse(duration time.Duration, accepted bool) {
	m.parsesTotal.Add(1)
	if accepted {
		m.parsesAccepted.Add(1)
	} else {
		m.parsesRejected.Add(1)
	}

	ns := uint64(duration.Nanoseconds()) //nolint:gosec // durations are non-negative
	m.parseTimeTotal.Add(ns)

	for {
		old := m.parseTimeMin.Load()
		if ns >= old || m.parseTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.parseTimeMax.Load()
		if ns <= old || m.parseTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordAtoms adds n to the number of atoms counted.
func (m *Metrics) RecordAtoms(n int64) {
	if n > 0 {
		m.atomsCounted.Add(uint64(n))
	}
}

// RecordStructuralFault records a strict-mode accumulator fault.
func (m *Metrics) RecordStructuralFault() {
	m.structuralFaults.Add(1)
}

// RecordRule records one evaluation of a validation rule.
func (m *Metrics) RecordRule(name string, duration time.Duration, rejected bool) {
	rm := m.ruleMetrics(name)
	rm.checks.Add(1)
	if rejected {
		rm.rejections.Add(1)
	}
	rm.totalTime.Add(uint64(duration.Nanoseconds())) //nolint:gosec // durations are non-negative
}

func (m *Metrics) ruleMetrics(name string) *ruleMetrics {
	if v, ok := m.rules.Load(name); ok {
		return v.(*ruleMetrics)
	}
	actual, _ := m.rules.LoadOrStore(name, &ruleMetrics{})
	return actual.(*ruleMetrics)
}

// --- Query Methods ---

// ParsesTotal returns the number of parses performed.
func (m *Metrics) ParsesTotal() uint64 {
	return m.parsesTotal.Load()
}

// ParsesAccepted returns the number of parses that produced a result.
func (m *Metrics) ParsesAccepted() uint64 {
	return m.parsesAccepted.Load()
}

// ParsesRejected returns the number of parses that failed.
func (m *Metrics) ParsesRejected() uint64 {
	return m.parsesRejected.Load()
}

// AcceptRate returns the share of accepted parses (0.0 to 1.0).
func (m *Metrics) AcceptRate() float64 {
	total := m.parsesTotal.Load()
	if total == 0 {
		return 0
	}
	return float64(m.parsesAccepted.Load()) / float64(total)
}

// AverageParseTime returns the mean parse duration.
func (m *Metrics) AverageParseTime() time.Duration {
	total := m.parsesTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.parseTimeTotal.Load() / total) //nolint:gosec // nanoseconds within int64 range
}

// MinParseTime returns the shortest parse duration.
func (m *Metrics) MinParseTime() time.Duration {
	minVal := m.parseTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // nanoseconds within int64 range
}

// MaxParseTime returns the longest parse duration.
func (m *Metrics) MaxParseTime() time.Duration {
	return time.Duration(m.parseTimeMax.Load()) //nolint:gosec // nanoseconds within int64 range
}

// CacheHits returns the total cache hits.
func (m *Metrics) CacheHits() uint64 {
	return m.cacheHits.Load()
}

// CacheMisses returns the total cache misses.
func (m *Metrics) CacheMisses() uint64 {
	return m.cacheMisses.Load()
}

// CacheHitRate returns the cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// AtomsCounted returns the number of atoms summed over accepted parses.
func (m *Metrics) AtomsCounted() uint64 {
	return m.atomsCounted.Load()
}

// StructuralFaults returns the number of strict-mode faults.
func (m *Metrics) StructuralFaults() uint64 {
	return m.structuralFaults.Load()
}

// RuleStats holds statistics for one validation rule.
type RuleStats struct {
	Name       string        `json:"name"`
	Checks     uint64        `json:"checks"`
	Rejections uint64        `json:"rejections"`
	TotalTime  time.Duration `json:"total_time_ns"`
	AvgTime    time.Duration `json:"avg_time_ns"`
}

// RuleStats returns statistics for a rule.
func (m *Metrics) RuleStats(name string) (RuleStats, bool) {
	v, ok := m.rules.Load(name)
	if !ok {
		return RuleStats{Name: name}, false
	}
	return v.(*ruleMetrics).stats(name), true
}

// AllRuleStats returns statistics for every rule seen, sorted by name.
func (m *Metrics) AllRuleStats() []RuleStats {
	var stats []RuleStats
	m.rules.Range(func(key, value any) bool {
		stats = append(stats, value.(*ruleMetrics).stats(key.(string)))
		return true
	})
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})
	return stats
}

func (rm *ruleMetrics) stats(name string) RuleStats {
	checks := rm.checks.Load()
	total := rm.totalTime.Load()

	var avg time.Duration
	if checks > 0 {
		avg = time.Duration(total / checks) //nolint:gosec // nanoseconds within int64 range
	}
	return RuleStats{
		Name:       name,
		Checks:     checks,
		Rejections: rm.rejections.Load(),
		TotalTime:  time.Duration(total), //nolint:gosec // nanoseconds within int64 range
		AvgTime:    avg,
	}
}

// --- Export Methods ---

// Snapshot represents a point-in-time snapshot of all metrics.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`

	ParsesTotal    uint64  `json:"parses_total"`
	ParsesAccepted uint64  `json:"parses_accepted"`
	ParsesRejected uint64  `json:"parses_rejected"`
	AcceptRate     float64 `json:"accept_rate"`

	AvgParseTimeNs uint64 `json:"avg_parse_time_ns"`
	MinParseTimeNs uint64 `json:"min_parse_time_ns"`
	MaxParseTimeNs uint64 `json:"max_parse_time_ns"`

	CacheHits    uint64  `json:"cache_hits"`
	CacheMisses  uint64  `json:"cache_misses"`
	CacheHitRate float64 `json:"cache_hit_rate"`

	AtomsCounted     uint64 `json:"atoms_counted"`
	StructuralFaults uint64 `json:"structural_faults"`

	Rules []RuleStats `json:"rules,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	total := m.parsesTotal.Load()

	var avg uint64
	if total > 0 {
		avg = m.parseTimeTotal.Load() / total
	}
	minTime := m.parseTimeMin.Load()
	if minTime == ^uint64(0) {
		minTime = 0
	}

	return Snapshot{
		Timestamp:        time.Now(),
		ParsesTotal:      total,
		ParsesAccepted:   m.parsesAccepted.Load(),
		ParsesRejected:   m.parsesRejected.Load(),
		AcceptRate:       m.AcceptRate(),
		AvgParseTimeNs:   avg,
		MinParseTimeNs:   minTime,
		MaxParseTimeNs:   m.parseTimeMax.Load(),
		CacheHits:        m.cacheHits.Load(),
		CacheMisses:      m.cacheMisses.Load(),
		CacheHitRate:     m.CacheHitRate(),
		AtomsCounted:     m.atomsCounted.Load(),
		StructuralFaults: m.structuralFaults.Load(),
		Rules:            m.AllRuleStats(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.parsesTotal.Store(0)
	m.parsesAccepted.Store(0)
	m.parsesRejected.Store(0)
	m.parseTimeTotal.Store(0)
	m.parseTimeMin.Store(^uint64(0))
	m.parseTimeMax.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.atomsCounted.Store(0)
	m.structuralFaults.Store(0)

	m.rules.Range(func(key, _ any) bool {
		m.rules.Delete(key)
		return true
	})
}
