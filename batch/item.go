package batch

import (
	"github.com/google/uuid"

	"github.com/flowq-io/flowq/future"
)

// workItem pairs one submitted value with the future that delivers its
// outcome. It lives in the queue from Submit until a flush takes it or
// Clear discards it.
type workItem[T, R any] struct {
	id    uuid.UUID
	value T
	fut   *future.Future[R]
}

func newWorkItem[T, R any](value T) *workItem[T, R] {
	return &workItem[T, R]{
		id:    uuid.New(),
		value: value,
		fut:   future.New[R](),
	}
}
