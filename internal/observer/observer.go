// Package observer collects run metrics from pipeline events and
// watches the brand list file for live reloads.
package observer

import (
	"sync"
	"time"

	"github.com/merchpilot/merchpilot/internal/domain"
	"github.com/merchpilot/merchpilot/internal/pipeline"
)

// Observer aggregates metrics across pipeline runs. It plugs into the
// pipeline as an event sink.
type Observer struct {
	stuckThreshold time.Duration

	mu          sync.RWMutex
	inFlight    map[string]time.Time
	tallies     map[string]*tally
	completions []completion
	failed      int
}

type tally struct {
	candidates int
	approved   int
}

type completion struct {
	ExecutionID string
	Duration    time.Duration
	Candidates  int
	Approved    int
	CompletedAt time.Time
}

// Metrics holds aggregated metrics
type Metrics struct {
	TotalRuns       int
	TotalFailed     int
	TotalCandidates int
	TotalApproved   int
	AvgDuration     time.Duration
}

// New creates a new Observer
func New(stuckThreshold time.Duration) *Observer {
	return &Observer{
		stuckThreshold: stuckThreshold,
		inFlight:       make(map[string]time.Time),
		tallies:        make(map[string]*tally),
	}
}

// Emit consumes one pipeline event
func (o *Observer) Emit(e pipeline.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch e.Type {
	case pipeline.EventRunStarted:
		o.inFlight[e.ExecutionID] = e.Timestamp
		o.tallies[e.ExecutionID] = &tally{}
	case pipeline.EventCandidateDone:
		t := o.tallies[e.ExecutionID]
		if t == nil {
			return
		}
		t.candidates++
		if e.Status == string(domain.StatusApproved) {
			t.approved++
		}
	case pipeline.EventRunCompleted:
		started, ok := o.inFlight[e.ExecutionID]
		if !ok {
			return
		}
		t := o.tallies[e.ExecutionID]
		if t == nil {
			t = &tally{}
		}
		o.completions = append(o.completions, completion{
			ExecutionID: e.ExecutionID,
			Duration:    e.Timestamp.Sub(started),
			Candidates:  t.candidates,
			Approved:    t.approved,
			CompletedAt: e.Timestamp,
		})
		delete(o.inFlight, e.ExecutionID)
		delete(o.tallies, e.ExecutionID)
	case pipeline.EventRunFailed:
		o.failed++
		delete(o.inFlight, e.ExecutionID)
		delete(o.tallies, e.ExecutionID)
	}
}

// Stuck returns the execution ids of runs in flight longer than the
// stuck threshold.
func (o *Observer) Stuck() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var stuck []string
	for id, started := range o.inFlight {
		if time.Since(started) > o.stuckThreshold {
			stuck = append(stuck, id)
		}
	}
	return stuck
}

// GetMetrics returns aggregated metrics
func (o *Observer) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var metrics Metrics
	var totalDuration time.Duration

	for _, c := range o.completions {
		metrics.TotalRuns++
		metrics.TotalCandidates += c.Candidates
		metrics.TotalApproved += c.Approved
		totalDuration += c.Duration
	}
	metrics.TotalFailed = o.failed

	if metrics.TotalRuns > 0 {
		metrics.AvgDuration = totalDuration / time.Duration(metrics.TotalRuns)
	}

	return metrics
}

// RecentRuns returns execution ids completed within the last duration
func (o *Observer) RecentRuns(since time.Duration) []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	cutoff := time.Now().Add(-since)
	var result []string

	for _, c := range o.completions {
		if c.CompletedAt.After(cutoff) {
			result = append(result, c.ExecutionID)
		}
	}

	return result
}
