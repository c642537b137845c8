package pipeline

import "time"

// EventType classifies pipeline events
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventBatchStarted  EventType = "batch_started"
	EventBatchFinished EventType = "batch_finished"
	EventCandidateDone EventType = "candidate_done"
	EventRunCompleted  EventType = "run_completed"
	EventRunFailed     EventType = "run_failed"
)

// Event is one observable pipeline occurrence, broadcast to sinks
// (logging, SSE/websocket feed, notifications).
type Event struct {
	Type        EventType `json:"type"`
	ExecutionID string    `json:"execution_id"`
	CandidateID string    `json:"candidate_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	Batch       int       `json:"batch,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// EventSink receives pipeline events. Implementations must not block;
// slow consumers drop events rather than stall a batch.
type EventSink interface {
	Emit(e Event)
}

// EventSinkFunc adapts a function to the EventSink interface
type EventSinkFunc func(e Event)

// Emit calls the function
func (f EventSinkFunc) Emit(e Event) { f(e) }

// MultiSink fans events out to several sinks
type MultiSink struct {
	sinks []EventSink
}

// NewMultiSink creates a sink that forwards to all provided sinks
func NewMultiSink(sinks ...EventSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Emit forwards the event to every sink
func (m *MultiSink) Emit(e Event) {
	for _, s := range m.sinks {
		s.Emit(e)
	}
}

// NoopSink discards events
type NoopSink struct{}

// Emit does nothing
func (NoopSink) Emit(Event) {}
