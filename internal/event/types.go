// Package event defines the events the staircase coordinator publishes and
// the bus that delivers them.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "staircase.trial_selected")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeResponseRecorded  = "staircase.response_recorded"
	TypeTrialSelected     = "staircase.trial_selected"
	TypeProcedureFinished = "staircase.procedure_finished"
	TypeCoordinatorDone   = "staircase.finished"
)

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// ResponseRecordedEvent is emitted when a response reaches the coordinator,
// before it is validated.
type ResponseRecordedEvent struct {
	baseEvent
	Coordinator string
	Responses   []int
}

// NewResponseRecordedEvent creates a ResponseRecordedEvent.
func NewResponseRecordedEvent(coordinator string, responses []int) ResponseRecordedEvent {
	return ResponseRecordedEvent{
		baseEvent:   newBaseEvent(TypeResponseRecorded),
		Coordinator: coordinator,
		Responses:   responses,
	}
}

// TrialSelectedEvent is emitted when a staircase is chosen to supply a trial.
type TrialSelectedEvent struct {
	baseEvent
	Coordinator string
	Trial       int     // Ledger slot filled
	Label       string  // Selected staircase
	DupCardinal int     // 0 unless fully randomized with duplicates
	Value       float64 // Recommended intensity
}

// NewTrialSelectedEvent creates a TrialSelectedEvent.
func NewTrialSelectedEvent(coordinator string, trial int, label string, dupCardinal int, value float64) TrialSelectedEvent {
	return TrialSelectedEvent{
		baseEvent:   newBaseEvent(TypeTrialSelected),
		Coordinator: coordinator,
		Trial:       trial,
		Label:       label,
		DupCardinal: dupCardinal,
		Value:       value,
	}
}

// ProcedureFinishedEvent is emitted when one staircase completes.
type ProcedureFinishedEvent struct {
	baseEvent
	Coordinator string
	Label       string
	DupCardinal int
}

// NewProcedureFinishedEvent creates a ProcedureFinishedEvent.
func NewProcedureFinishedEvent(coordinator, label string, dupCardinal int) ProcedureFinishedEvent {
	return ProcedureFinishedEvent{
		baseEvent:   newBaseEvent(TypeProcedureFinished),
		Coordinator: coordinator,
		Label:       label,
		DupCardinal: dupCardinal,
	}
}

// CoordinatorFinishedEvent is emitted once, when every staircase has
// completed and no further trial can be selected.
type CoordinatorFinishedEvent struct {
	baseEvent
	Coordinator    string
	Trials         int // Populated ledger slots
	MarkedSnapshot int // Snapshot flagged finished, or -1
}

// NewCoordinatorFinishedEvent creates a CoordinatorFinishedEvent.
func NewCoordinatorFinishedEvent(coordinator string, trials, markedSnapshot int) CoordinatorFinishedEvent {
	return CoordinatorFinishedEvent{
		baseEvent:      newBaseEvent(TypeCoordinatorDone),
		Coordinator:    coordinator,
		Trials:         trials,
		MarkedSnapshot: markedSnapshot,
	}
}
