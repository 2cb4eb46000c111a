package ai

import (
	"context"
	"sort"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	durationMs int64
	failed     bool
	tokensIn   int
	tokensOut  int
}

// StatsSnapshot aggregates the calls recorded within the rolling window.
// Latency percentiles cover successful calls only.
type StatsSnapshot struct {
	Count        int     `json:"count"`
	Failures     int     `json:"failures"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	MinMs        int64   `json:"min_ms"`
	MaxMs        int64   `json:"max_ms"`
	AvgMs        float64 `json:"avg_ms"`
	P50Ms        float64 `json:"p50_ms"`
	P95Ms        float64 `json:"p95_ms"`
	P99Ms        float64 `json:"p99_ms"`
}

// Stats tracks recent completion calls within a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one successful call.
func (s *Stats) Record(durationMs int64, tokensIn, tokensOut int) {
	s.add(sample{durationMs: durationMs, tokensIn: tokensIn, tokensOut: tokensOut})
}

// RecordFailure adds one failed call.
func (s *Stats) RecordFailure(durationMs int64) {
	s.add(sample{durationMs: durationMs, failed: true})
}

func (s *Stats) add(sm sample) {
	if sm.durationMs < 0 {
		sm.durationMs = 0
	}
	sm.at = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(sm.at)
	s.samples = append(s.samples, sm)
}

func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)

	var snap StatsSnapshot
	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		snap.Count++
		if sm.failed {
			snap.Failures++
			continue
		}
		snap.InputTokens += sm.tokensIn
		snap.OutputTokens += sm.tokensOut
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	if len(values) == 0 {
		return snap
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}

type observed struct {
	next  Completer
	stats *Stats
}

// Observe records the latency and outcome of every call through c.
func Observe(c Completer, stats *Stats) Completer {
	return &observed{next: c, stats: stats}
}

func (o *observed) Model() string {
	return o.next.Model()
}

func (o *observed) Complete(ctx context.Context, req Request) (*Completion, error) {
	start := time.Now()
	comp, err := o.next.Complete(ctx, req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		o.stats.RecordFailure(elapsed)
		return nil, err
	}
	o.stats.Record(elapsed, comp.InputTokens, comp.OutputTokens)
	return comp, nil
}
