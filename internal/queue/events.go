package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a lifecycle event emitted by the queue.
type EventType string

// Lifecycle event types. For a single job the queue emits them in strict
// order: enqueued, then started (once per attempt), then zero or more
// progressed, then exactly one terminal completed or failed.
const (
	EventEnqueued   EventType = "enqueued"
	EventStarted    EventType = "started"
	EventProgressed EventType = "progressed"
	EventCompleted  EventType = "completed"
	EventFailed     EventType = "failed"
)

// Event is a queue lifecycle notification. Delivery is at-least-once:
// consumers must tolerate duplicate terminal events for the same job.
type Event struct {
	// JobID identifies the job the event belongs to.
	JobID uuid.UUID

	// Type is the lifecycle stage.
	Type EventType

	// Attempt is the 1-based attempt number the event belongs to.
	// Zero for enqueued events.
	Attempt int

	// Progress carries the completion percentage for progressed events.
	Progress int

	// Result carries the job's result payload for completed events.
	Result json.RawMessage

	// Error carries the failure reason for failed events.
	Error string

	// At is when the event was emitted.
	At time.Time
}

// IsTerminal reports whether the event ends the job's lifecycle.
func (e Event) IsTerminal() bool {
	return e.Type == EventCompleted || e.Type == EventFailed
}
