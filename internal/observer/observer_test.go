package observer

import (
	"testing"
	"time"

	"github.com/merchpilot/merchpilot/internal/pipeline"
)

func runEvents(o *Observer, execID string, start time.Time, statuses ...string) {
	o.Emit(pipeline.Event{Type: pipeline.EventRunStarted, ExecutionID: execID, Timestamp: start})
	for _, s := range statuses {
		o.Emit(pipeline.Event{Type: pipeline.EventCandidateDone, ExecutionID: execID, Status: s})
	}
	o.Emit(pipeline.Event{Type: pipeline.EventRunCompleted, ExecutionID: execID, Timestamp: start.Add(10 * time.Minute)})
}

func TestObserver_Metrics(t *testing.T) {
	obs := New(time.Hour)
	start := time.Now().Add(-time.Hour)

	runEvents(obs, "run-1", start, "approved", "approved", "quality_rejected")
	runEvents(obs, "run-2", start, "approved", "ip_flagged")

	metrics := obs.GetMetrics()
	if metrics.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", metrics.TotalRuns)
	}
	if metrics.TotalCandidates != 5 {
		t.Errorf("TotalCandidates = %d, want 5", metrics.TotalCandidates)
	}
	if metrics.TotalApproved != 3 {
		t.Errorf("TotalApproved = %d, want 3", metrics.TotalApproved)
	}
	if metrics.AvgDuration != 10*time.Minute {
		t.Errorf("AvgDuration = %v, want 10m", metrics.AvgDuration)
	}
}

func TestObserver_FailedRuns(t *testing.T) {
	obs := New(time.Hour)
	obs.Emit(pipeline.Event{Type: pipeline.EventRunStarted, ExecutionID: "run-1", Timestamp: time.Now()})
	obs.Emit(pipeline.Event{Type: pipeline.EventRunFailed, ExecutionID: "run-1", Timestamp: time.Now()})

	metrics := obs.GetMetrics()
	if metrics.TotalFailed != 1 {
		t.Errorf("TotalFailed = %d, want 1", metrics.TotalFailed)
	}
	if metrics.TotalRuns != 0 {
		t.Errorf("TotalRuns = %d, want 0", metrics.TotalRuns)
	}
	if len(obs.Stuck()) != 0 {
		t.Error("failed run should not linger as stuck")
	}
}

func TestObserver_DetectStuck(t *testing.T) {
	obs := New(5 * time.Minute)

	obs.Emit(pipeline.Event{
		Type:        pipeline.EventRunStarted,
		ExecutionID: "run-slow",
		Timestamp:   time.Now().Add(-10 * time.Minute),
	})

	stuck := obs.Stuck()
	if len(stuck) != 1 || stuck[0] != "run-slow" {
		t.Errorf("Stuck() = %v, want [run-slow]", stuck)
	}
}

func TestObserver_NotStuck(t *testing.T) {
	obs := New(5 * time.Minute)

	obs.Emit(pipeline.Event{
		Type:        pipeline.EventRunStarted,
		ExecutionID: "run-fresh",
		Timestamp:   time.Now().Add(-2 * time.Minute),
	})

	if len(obs.Stuck()) != 0 {
		t.Error("run in flight for 2 minutes should not be stuck")
	}
}

func TestObserver_RecentRuns(t *testing.T) {
	obs := New(time.Hour)
	runEvents(obs, "run-old", time.Now().Add(-3*time.Hour))
	runEvents(obs, "run-new", time.Now().Add(-20*time.Minute))

	recent := obs.RecentRuns(time.Hour)
	if len(recent) != 1 || recent[0] != "run-new" {
		t.Errorf("RecentRuns = %v, want [run-new]", recent)
	}
}
