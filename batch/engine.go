package batch

import (
	"context"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/flowq-io/flowq/emitter"
	"github.com/flowq-io/flowq/future"
)

// Func is the externally supplied processing function. It receives the
// taken values in admission order and must return exactly one Result per
// value, in the same order. Returning an error fails the whole flush.
type Func[T, R any] func(ctx context.Context, values []T) ([]Result[R], error)

// Engine coalesces submitted values into groups and flushes a group to the
// processing function when the batch size is reached or the interval
// elapses. Create one with New.
//
// At most one flush is in flight per engine at any time. Every submitted
// value's future is settled exactly once: by the flush that takes it, or by
// Clear.
type Engine[T, R any] struct {
	fn      Func[T, R]
	config  Config
	logger  logrus.FieldLogger
	emitter *emitter.Emitter

	mu       sync.Mutex
	queue    []*workItem[T, R]
	flushing bool
	stop     chan struct{} // non-nil while the scheduler is active

	successCount uint64
	errorCount   uint64
}

// New creates an engine around the given processing function. A nil config
// selects the defaults; an invalid initial configuration is an error.
func New[T, R any](fn Func[T, R], config Config) (*Engine[T, R], error) {
	if fn == nil {
		return nil, errors.New("batch: processing function cannot be nil")
	}
	if config == nil {
		config = NewConstantConfig(nil)
	}
	if err := config.Get().Validate(); err != nil {
		return nil, err
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Engine[T, R]{
		fn:      fn,
		config:  config,
		logger:  discard,
		emitter: emitter.New(),
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
// chaining. Use it to share one emitter between collaborating components.
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

// Submit admits one value and returns the future that will carry its
// outcome. It fails with ErrCapacityExceeded when the queue already holds
// Limit items.
//
// Reaching BatchSize queued items triggers an immediate asynchronous flush;
// below the threshold the periodic scheduler is started if it is not
// already running.
func (e *Engine[T, R]) Submit(value T) (*future.Future[R], error) {
	cfg := fixValues(e.config.Get())

	e.mu.Lock()
	if len(e.queue) >= cfg.Limit {
		e.mu.Unlock()
		return nil, ErrCapacityExceeded
	}

	it := newWorkItem[T, R](value)
	e.queue = append(e.queue, it)
	depth := len(e.queue)

	started := false
	if depth < cfg.BatchSize {
		started = e.startLocked(cfg.Interval)
	}
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"item":  it.id,
		"depth": depth,
	}).Debug("item admitted")

	if started {
		e.emitter.Publish(EventSchedulerStarted)
	}
	if depth >= cfg.BatchSize {
		go func() {
			if err := e.Flush(context.Background()); err != nil {
				e.logger.WithError(err).Warn("threshold flush failed")
			}
		}()
	}
	return it.fut, nil
}

// Flush runs one flush cycle: take up to BatchSize items from the head of
// the queue, invoke the processing function, and settle the taken items.
// It is single-flight; calling it while another flush is running is a safe
// no-op returning nil. An empty queue is also a no-op.
//
// The processing function is raced against the configured Timeout. If the
// deadline elapses first, every taken item is rejected with ErrTimedOut and
// the in-flight call is abandoned: its eventual return is discarded and no
// cancellation is propagated beyond ctx.
func (e *Engine[T, R]) Flush(ctx context.Context) error {
	cfg := fixValues(e.config.Get())

	e.mu.Lock()
	if e.flushing || len(e.queue) == 0 {
		e.mu.Unlock()
		return nil
	}
	e.flushing = true

	n := cfg.BatchSize
	if n > len(e.queue) {
		n = len(e.queue)
	}
	taken := e.queue[:n:n]
	e.queue = e.queue[n:]

	emptied := len(e.queue) == 0
	stopped := false
	if emptied {
		stopped = e.stopLocked()
	}
	e.mu.Unlock()

	if emptied {
		e.emitter.Publish(EventQueueEmptied)
	}
	if stopped {
		e.emitter.Publish(EventSchedulerStopped)
	}

	values := make([]T, len(taken))
	for i, it := range taken {
		values[i] = it.value
	}

	type flushOutcome struct {
		results []Result[R]
		err     error
	}
	outc := make(chan flushOutcome, 1)
	go func() {
		results, err := e.fn(ctx, values)
		outc <- flushOutcome{results: results, err: err}
	}()

	deadline := time.NewTimer(cfg.Timeout)
	defer deadline.Stop()

	select {
	case out := <-outc:
		e.setFlushing(false)
		if out.err != nil {
			return e.failFlush(taken, &FuncError{Err: out.err})
		}
		if len(out.results) != len(taken) {
			mismatch := &ResultCountError{Expected: len(taken), Actual: len(out.results)}
			err := e.failFlush(taken, mismatch)
			e.emitter.Publish(EventError, mismatch)
			return err
		}
		e.settle(taken, out.results)
		return nil

	case <-deadline.C:
		e.setFlushing(false)
		for _, it := range taken {
			it.fut.Reject(ErrTimedOut)
		}
		e.logger.WithField("count", len(taken)).Warn("flush timed out, abandoning in-flight call")
		return ErrTimedOut
	}
}

// failFlush rejects every taken item with err and charges the whole group
// to the error counter. Engine-detected protocol violations additionally
// publish EventError; failures of the processing function itself do not,
// they surface only through the futures.
func (e *Engine[T, R]) failFlush(taken []*workItem[T, R], err error) error {
	for _, it := range taken {
		it.fut.Reject(err)
	}
	atomic.AddUint64(&e.errorCount, uint64(len(taken)))
	e.logger.WithError(err).WithField("count", len(taken)).Warn("flush failed")
	return err
}

// settle zips results to items positionally and settles each future.
func (e *Engine[T, R]) settle(taken []*workItem[T, R], results []Result[R]) {
	for i, it := range taken {
		r := results[i]
		if r.Failed() {
			it.fut.Reject(r.Err())
			atomic.AddUint64(&e.errorCount, 1)
		} else {
			it.fut.Resolve(r.Value())
			atomic.AddUint64(&e.successCount, 1)
		}
		e.emitter.Publish(EventItemProcessed, ItemProcessed[R]{ID: it.id, Value: r.Value(), Err: r.Err()})
	}
}

func (e *Engine[T, R]) setFlushing(v bool) {
	e.mu.Lock()
	e.flushing = v
	e.mu.Unlock()
}

// Start begins periodic flushing. It is idempotent;
// EventSchedulerStarted is published only on an actual transition.
func (e *Engine[T, R]) Start() {
	cfg := fixValues(e.config.Get())

	e.mu.Lock()
	started := e.startLocked(cfg.Interval)
	e.mu.Unlock()

	if started {
		e.emitter.Publish(EventSchedulerStarted)
	}
}

// Stop halts periodic flushing without touching queued items. It is
// idempotent; EventSchedulerStopped is published only on an actual
// transition, and concurrent Stop calls stop the scheduler exactly once.
func (e *Engine[T, R]) Stop() {
	e.mu.Lock()
	stopped := e.stopLocked()
	e.mu.Unlock()

	if stopped {
		e.emitter.Publish(EventSchedulerStopped)
	}
}

func (e *Engine[T, R]) startLocked(interval time.Duration) bool {
	if e.stop != nil {
		return false
	}
	stop := make(chan struct{})
	e.stop = stop
	go e.run(interval, stop)
	return true
}

func (e *Engine[T, R]) stopLocked() bool {
	if e.stop == nil {
		return false
	}
	close(e.stop)
	e.stop = nil
	return true
}

func (e *Engine[T, R]) run(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.Flush(context.Background()); err != nil {
				e.logger.WithError(err).Warn("periodic flush failed")
			}
		case <-stop:
			return
		}
	}
}

// Drain flushes until the queue is empty, then stops the scheduler and
// publishes EventDrained. It yields once before the first flush so
// admissions already in flight can land. Errors from individual flushes
// are aggregated and do not abort the drain.
func (e *Engine[T, R]) Drain(ctx context.Context) error {
	runtime.Gosched()

	var errs *multierror.Error
	for {
		e.mu.Lock()
		empty := len(e.queue) == 0
		e.mu.Unlock()
		if empty {
			break
		}

		if err := e.Flush(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
		// A concurrent flush makes Flush a no-op; back off briefly
		// instead of spinning.
		time.Sleep(time.Millisecond)
	}

	e.Stop()
	e.emitter.Publish(EventDrained)
	return errs.ErrorOrNil()
}

// Clear discards all queued items without invoking the processing
// function, rejecting each discarded item's future with ErrCleared, stops
// the scheduler, and publishes EventDrained. Items already taken by an
// in-flight flush are unaffected.
func (e *Engine[T, R]) Clear() {
	e.mu.Lock()
	discarded := e.queue
	e.queue = nil
	stopped := e.stopLocked()
	e.mu.Unlock()

	for _, it := range discarded {
		it.fut.Reject(ErrCleared)
	}
	if stopped {
		e.emitter.Publish(EventSchedulerStopped)
	}
	e.emitter.Publish(EventDrained)

	if len(discarded) > 0 {
		e.logger.WithField("count", len(discarded)).Info("queue cleared")
	}
}
