package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/flowq-io/flowq/future"
)

// workItem is one queued value together with its outcome future, its
// admission timestamp, and the guard that times it out of the queue if no
// cycle takes it first. Taking the item stops the guard; the processing
// call then gets its own fresh timeout.
type workItem[T, R any] struct {
	id         uuid.UUID
	value      T
	fut        *future.Future[R]
	guard      *time.Timer
	enqueuedAt time.Time
}

func newWorkItem[T, R any](value T) *workItem[T, R] {
	return &workItem[T, R]{
		id:         uuid.New(),
		value:      value,
		fut:        future.New[R](),
		enqueuedAt: time.Now(),
	}
}
