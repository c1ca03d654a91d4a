// Package usage aggregates token usage of external model calls, either live
// as traces are recorded or after the fact from stored traces.
package usage

import (
	"sync"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// TraceSink receives model traces. *store.LocalStore satisfies it.
type TraceSink interface {
	StoreModelTrace(trace *types.ModelTrace) error
}

// Tracker counts every trace it sees and forwards it to the next sink.
type Tracker struct {
	mu         sync.Mutex
	next       TraceSink
	summary    Summary
	durationMs int64
}

// NewTracker creates a tracker in front of next, which may be nil.
func NewTracker(next TraceSink) *Tracker {
	return &Tracker{next: next, summary: newSummary()}
}

// StoreModelTrace records the trace and forwards it.
func (t *Tracker) StoreModelTrace(trace *types.ModelTrace) error {
	if trace == nil {
		return nil
	}
	t.mu.Lock()
	t.durationMs = add(&t.summary, t.durationMs, *trace)
	t.mu.Unlock()

	if t.next == nil {
		return nil
	}
	return t.next.StoreModelTrace(trace)
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.summary
	s.ByMode = copyTokenCountsMap(s.ByMode)
	s.ByModel = copyTokenCountsMap(s.ByModel)
	return s
}

// LogSummary writes the session totals to the api log.
func (t *Tracker) LogSummary() {
	s := t.Stats()
	if s.Total.Calls == 0 {
		return
	}
	logging.API("model usage: %d calls (%d failed), %d input + %d output tokens, avg %dms",
		s.Total.Calls, s.Total.Failures, s.Total.Input, s.Total.Output, s.AvgDurationMs)
}

// Summarize aggregates stored traces.
func Summarize(traces []types.ModelTrace) Summary {
	s := newSummary()
	var duration int64
	for _, tr := range traces {
		duration = add(&s, duration, tr)
	}
	return s
}

// add folds tr into s and returns the new duration sum.
func add(s *Summary, durationSum int64, tr types.ModelTrace) int64 {
	s.Total.Add(tr.PromptTokens, tr.OutputTokens, tr.Success)
	addToMap(s.ByMode, tr.Mode, tr.PromptTokens, tr.OutputTokens, tr.Success)
	model := tr.Model
	if model == "" {
		model = "unknown"
	}
	addToMap(s.ByModel, model, tr.PromptTokens, tr.OutputTokens, tr.Success)

	durationSum += tr.DurationMs
	s.AvgDurationMs = durationSum / s.Total.Calls
	return durationSum
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	if src == nil {
		return nil
	}
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, input, output int, success bool) {
	entry := m[key]
	entry.Add(input, output, success)
	m[key] = entry
}
