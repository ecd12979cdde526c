package queue

import (
	"time"

	"github.com/google/uuid"
)

// Event names published on the engine's emitter.
const (
	// EventItemProcessed fires after an item's processing call succeeds.
	// The payload is an ItemProcessed.
	EventItemProcessed = "queue:item-processed"

	// EventItemFailed fires after an item's processing call returns an
	// error. The payload is an ItemFailed.
	EventItemFailed = "queue:item-failed"

	// EventItemTimedOut fires when an item's queue wait or processing
	// call exceeds the timeout. The payload is an ItemTimedOut.
	EventItemTimedOut = "queue:item-timed-out"

	// EventQueueEmptied fires when a cycle leaves the queue empty.
	EventQueueEmptied = "queue:queue-emptied"

	// EventQueueFull fires when an admission is rejected at capacity.
	EventQueueFull = "queue:queue-full"

	// EventDrained fires after Drain empties the queue.
	EventDrained = "queue:drained"

	// EventPaused and EventResumed fire on actual pause-state
	// transitions, never on redundant calls.
	EventPaused  = "queue:paused"
	EventResumed = "queue:resumed"

	// EventDestroyed fires once, when Destroy tears the engine down.
	EventDestroyed = "queue:destroyed"
)

// ItemProcessed is the payload of EventItemProcessed.
type ItemProcessed[R any] struct {
	ID       uuid.UUID
	Value    R
	Duration time.Duration
}

// ItemFailed is the payload of EventItemFailed.
type ItemFailed struct {
	ID       uuid.UUID
	Err      error
	Duration time.Duration
}

// ItemTimedOut is the payload of EventItemTimedOut. QueueTime is the time
// elapsed since the item was admitted.
type ItemTimedOut struct {
	ID        uuid.UUID
	QueueTime time.Duration
}
