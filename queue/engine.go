package queue

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flowq-io/flowq/emitter"
	"github.com/flowq-io/flowq/future"
)

// Func is the externally supplied processing function, invoked once per
// taken item. The returned error rejects only that item's future.
type Func[T, R any] func(ctx context.Context, value T) (R, error)

// Engine processes submitted values individually under a bounded
// concurrency pool. Create one with New, start the cycle scheduler with
// Init, and tear it down with Destroy.
//
// At most one cycle is in flight per engine at any time. Every submitted
// value's future is settled exactly once: by the cycle that takes it, by
// its timeout guard, or by Clear/Destroy.
type Engine[T, R any] struct {
	fn      Func[T, R]
	cfg     Values
	logger  logrus.FieldLogger
	emitter *emitter.Emitter

	// ctx is the engine's lifecycle context, passed to every processing
	// call and canceled by Destroy.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	queue       []*workItem[T, R]
	cycling     bool
	paused      bool
	initialized bool
	destroyed   bool
	stop        chan struct{} // non-nil while the scheduler is active

	successCount uint64
	errorCount   uint64
	timeoutCount uint64
}

// New creates an engine around the given processing function. A nil values
// pointer selects the defaults; invalid values are an error.
func New[T, R any](fn Func[T, R], values *Values) (*Engine[T, R], error) {
	if fn == nil {
		return nil, errors.New("queue: processing function cannot be nil")
	}
	cfg := Values{
		Limit:       DefaultLimit,
		Concurrency: DefaultConcurrency,
		Interval:    DefaultInterval,
		Timeout:     DefaultTimeout,
	}
	if values != nil {
		cfg = *values
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine[T, R]{
		fn:      fn,
		cfg:     cfg,
		logger:  discard,
		emitter: emitter.New(),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// WithLogger sets the engine's logger and returns the engine for chaining.
func (e *Engine[T, R]) WithLogger(logger logrus.FieldLogger) *Engine[T, R] {
	if logger != nil {
		e.logger = logger
		e.emitter.WithLogger(logger)
	}
	return e
}

// WithEmitter replaces the engine's emitter and returns the engine for
// chaining.
func (e *Engine[T, R]) WithEmitter(em *emitter.Emitter) *Engine[T, R] {
	if em != nil {
		e.emitter = em
	}
	return e
}

// Emitter returns the emitter lifecycle events are published on.
func (e *Engine[T, R]) Emitter() *emitter.Emitter {
	return e.emitter
}

// Init starts the periodic cycle scheduler. It fails with
// ErrAlreadyInitialized when the scheduler is already running and with
// ErrDestroyed after Destroy. Drain stops the scheduler and permits a
// later re-initialization.
func (e *Engine[T, R]) Init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.destroyed {
		return ErrDestroyed
	}
	if e.initialized {
		return ErrAlreadyInitialized
	}
	e.initialized = true
	e.startLocked()
	return nil
}

// Submit admits one value and returns the future that will carry its
// outcome. At capacity it publishes EventQueueFull and fails with
// ErrCapacityExceeded; after Destroy it fails with ErrDestroyed.
//
// The admitted item is guarded by the configured Timeout: if no cycle
// takes it in time, it is removed from the queue and its future is
// rejected with ErrTimedOut.
func (e *Engine[T, R]) Submit(value T) (*future.Future[R], error) {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return nil, ErrDestroyed
	}
	if len(e.queue) >= e.cfg.Limit {
		depth := len(e.queue)
		e.mu.Unlock()
		e.emitter.Publish(EventQueueFull)
		e.logger.WithField("depth", depth).Debug("admission rejected, queue full")
		return nil, ErrCapacityExceeded
	}

	it := newWorkItem[T, R](value)
	it.guard = time.AfterFunc(e.cfg.Timeout, func() { e.expire(it) })
	e.queue = append(e.queue, it)
	depth := len(e.queue)
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"item":  it.id,
		"depth": depth,
	}).Debug("item admitted")
	return it.fut, nil
}

// expire removes an item whose queue-wait guard fired before any cycle
// took it. An item no longer in the queue has been taken or discarded;
// then the guard is a no-op, keeping the timeout accounting exactly-once.
func (e *Engine[T, R]) expire(it *workItem[T, R]) {
	e.mu.Lock()
	idx := -1
	for i, queued := range e.queue {
		if queued == it {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue[:idx], e.queue[idx+1:]...)
	e.mu.Unlock()

	atomic.AddUint64(&e.timeoutCount, 1)
	it.fut.Reject(ErrTimedOut)
	queueTime := time.Since(it.enqueuedAt)
	e.emitter.Publish(EventItemTimedOut, ItemTimedOut{ID: it.id, QueueTime: queueTime})
	e.logger.WithFields(logrus.Fields{
		"item":       it.id,
		"queue_time": queueTime,
	}).Debug("item timed out in queue")
}

// cycle runs one processing round: take up to Concurrency items and
// process them concurrently and independently. It is a no-op while another
// cycle is running, while the engine is paused (unless forced by Drain),
// or when the queue is empty.
func (e *Engine[T, R]) cycle(ignorePause bool) {
	e.mu.Lock()
	if e.cycling || (e.paused && !ignorePause) || len(e.queue) == 0 {
		e.mu.Unlock()
		return
	}
	e.cycling = true

	n := e.cfg.Concurrency
	if n > len(e.queue) {
		n = len(e.queue)
	}
	taken := make([]*workItem[T, R], 0, n)
	if e.cfg.Order == LIFO {
		// Newest first.
		for i := 0; i < n; i++ {
			taken = append(taken, e.queue[len(e.queue)-1-i])
		}
		e.queue = e.queue[:len(e.queue)-n]
	} else {
		taken = append(taken, e.queue[:n]...)
		e.queue = e.queue[n:]
	}
	for _, it := range taken {
		it.guard.Stop()
	}
	e.mu.Unlock()

	var wg sync.WaitGroup
	for _, it := range taken {
		wg.Add(1)
		go func(it *workItem[T, R]) {
			defer wg.Done()
			e.process(it)
		}(it)
	}
	wg.Wait()

	e.mu.Lock()
	e.cycling = false
	emptied := len(e.queue) == 0
	e.mu.Unlock()

	if emptied {
		e.emitter.Publish(EventQueueEmptied)
	}
}

// process runs the processing function for one taken item, racing it
// against the configured Timeout. A lost race abandons the in-flight call:
// its eventual return is discarded and only ctx cancellation on Destroy
// reaches it.
func (e *Engine[T, R]) process(it *workItem[T, R]) {
	start := time.Now()

	type callOutcome struct {
		value R
		err   error
	}
	outc := make(chan callOutcome, 1)
	go func() {
		v, err := e.fn(e.ctx, it.value)
		outc <- callOutcome{value: v, err: err}
	}()

	deadline := time.NewTimer(e.cfg.Timeout)
	defer deadline.Stop()

	select {
	case out := <-outc:
		duration := time.Since(start)
		if out.err != nil {
			atomic.AddUint64(&e.errorCount, 1)
			it.fut.Reject(out.err)
			e.emitter.Publish(EventItemFailed, ItemFailed{ID: it.id, Err: out.err, Duration: duration})
			e.logger.WithError(out.err).WithFields(logrus.Fields{
				"item":     it.id,
				"duration": duration,
			}).Debug("item failed")
		} else {
			atomic.AddUint64(&e.successCount, 1)
			it.fut.Resolve(out.value)
			e.emitter.Publish(EventItemProcessed, ItemProcessed[R]{ID: it.id, Value: out.value, Duration: duration})
		}

	case <-deadline.C:
		atomic.AddUint64(&e.timeoutCount, 1)
		it.fut.Reject(ErrTimedOut)
		e.emitter.Publish(EventItemTimedOut, ItemTimedOut{ID: it.id, QueueTime: time.Since(it.enqueuedAt)})
		e.logger.WithField("item", it.id).Warn("processing timed out, abandoning in-flight call")
	}
}

// Pause suspends cycle starts. An in-progress cycle runs to completion.
// EventPaused is published only on an actual transition.
func (e *Engine[T, R]) Pause() {
	e.mu.Lock()
	transition := !e.paused
	e.paused = true
	e.mu.Unlock()

	if transition {
		e.emitter.Publish(EventPaused)
	}
}

// Resume lifts a pause. EventResumed is published only on an actual
// transition.
func (e *Engine[T, R]) Resume() {
	e.mu.Lock()
	transition := e.paused
	e.paused = false
	e.mu.Unlock()

	if transition {
		e.emitter.Publish(EventResumed)
	}
}

// Clear discards all queued items without processing them and disarms
// their timeout guards. With rejectPending each discarded item's future is
// rejected with ErrCleared; without it the futures are left unsettled.
func (e *Engine[T, R]) Clear(rejectPending bool) {
	e.mu.Lock()
	discarded := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, it := range discarded {
		it.guard.Stop()
		if rejectPending {
			it.fut.Reject(ErrCleared)
		}
	}

	if len(discarded) > 0 {
		e.logger.WithField("count", len(discarded)).Info("queue cleared")
	}
}

// Drain stops the scheduler, then runs processing cycles until the queue
// is empty, and publishes EventDrained. It processes regardless of a
// pause. The engine may be re-initialized afterwards.
func (e *Engine[T, R]) Drain() error {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return ErrDestroyed
	}
	e.stopLocked()
	e.initialized = false
	e.mu.Unlock()

	for {
		e.mu.Lock()
		empty := len(e.queue) == 0
		e.mu.Unlock()
		if empty {
			break
		}

		e.cycle(true)
		// A concurrent cycle makes this one a no-op; back off briefly
		// instead of spinning.
		time.Sleep(time.Millisecond)
	}

	e.emitter.Publish(EventDrained)
	return nil
}

// Destroy stops the scheduler, cancels the lifecycle context handed to
// processing calls, rejects all queued items with ErrCleared, publishes
// EventDestroyed, and releases the emitter. It is idempotent; afterwards
// Submit and Init fail with ErrDestroyed.
func (e *Engine[T, R]) Destroy() {
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return
	}
	e.destroyed = true
	e.initialized = false
	e.stopLocked()
	discarded := e.queue
	e.queue = nil
	e.mu.Unlock()

	e.cancel()
	for _, it := range discarded {
		it.guard.Stop()
		it.fut.Reject(ErrCleared)
	}

	e.emitter.Publish(EventDestroyed)
	e.emitter.Close()
	e.logger.Info("engine destroyed")
}

func (e *Engine[T, R]) startLocked() {
	if e.stop != nil {
		return
	}
	stop := make(chan struct{})
	e.stop = stop
	go e.run(stop)
}

func (e *Engine[T, R]) stopLocked() {
	if e.stop == nil {
		return
	}
	close(e.stop)
	e.stop = nil
}

func (e *Engine[T, R]) run(stop chan struct{}) {
	interval := e.cfg.Interval
	if interval <= 0 {
		// A ticker period must be positive; clamp "as fast as possible"
		// to 1ms.
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.cycle(false)
		case <-stop:
			return
		}
	}
}
