package batch

import "github.com/google/uuid"

// Event names published on the engine's emitter.
const (
	// EventItemProcessed fires once per taken item after a flush whose
	// result count matched, whether the item succeeded or failed. The
	// payload is an ItemProcessed.
	EventItemProcessed = "batch:item-processed"

	// EventQueueEmptied fires when taking items for a flush leaves the
	// queue empty.
	EventQueueEmptied = "batch:queue-emptied"

	// EventDrained fires after Drain finishes or Clear discards the queue.
	EventDrained = "batch:drained"

	// EventError fires for engine-detected flush failures. Errors returned
	// by the processing function itself do not publish it; they surface
	// only through the taken items' futures.
	EventError = "batch:error"

	// EventSchedulerStarted and EventSchedulerStopped fire on actual
	// transitions of the periodic flush scheduler, never on redundant
	// Start/Stop calls.
	EventSchedulerStarted = "batch:scheduler-started"
	EventSchedulerStopped = "batch:scheduler-stopped"
)

// ItemProcessed is the payload of EventItemProcessed.
type ItemProcessed[R any] struct {
	ID    uuid.UUID
	Value R
	Err   error
}
