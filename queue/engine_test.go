package queue_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowq-io/flowq/future"
	"github.com/flowq-io/flowq/queue"
)

const waitLong = 2 * time.Second

// orderRecorder is a processing function that records the order values are
// handed to it and doubles them.
type orderRecorder struct {
	mu    sync.Mutex
	order []int
}

func (r *orderRecorder) fn(_ context.Context, v int) (int, error) {
	r.mu.Lock()
	r.order = append(r.order, v)
	r.mu.Unlock()
	return v * 2, nil
}

func (r *orderRecorder) taken() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.order...)
}

func double(_ context.Context, v int) (int, error) {
	return v * 2, nil
}

func newEngine(t *testing.T, fn queue.Func[int, int], v queue.Values) *queue.Engine[int, int] {
	t.Helper()
	e, err := queue.New(fn, &v)
	require.NoError(t, err)
	t.Cleanup(e.Destroy)
	return e
}

func TestNew(t *testing.T) {
	t.Run("nil function is rejected", func(t *testing.T) {
		_, err := queue.New[int, int](nil, nil)
		require.Error(t, err)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		v := validValues()
		v.Limit = 0
		_, err := queue.New(double, &v)
		require.Error(t, err)
	})

	t.Run("nil values select defaults", func(t *testing.T) {
		e, err := queue.New(double, nil)
		require.NoError(t, err)
		defer e.Destroy()
		assert.Equal(t, queue.DefaultLimit, e.Stats().Limit)
	})
}

func TestEngine_FIFOOrder(t *testing.T) {
	rec := &orderRecorder{}
	v := validValues()
	v.Concurrency = 1
	v.Interval = 2 * time.Millisecond
	e := newEngine(t, rec.fn, v)

	var futs []*future.Future[int]
	for i := 1; i <= 5; i++ {
		f, err := e.Submit(i)
		require.NoError(t, err)
		futs = append(futs, f)
	}

	require.NoError(t, e.Init())

	for i, f := range futs {
		got, err := f.WaitTimeout(waitLong, "item not settled")
		require.NoError(t, err)
		assert.Equal(t, (i+1)*2, got)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.taken(), "single-concurrency FIFO preserves admission order")
}

func TestEngine_LIFOOrder(t *testing.T) {
	rec := &orderRecorder{}
	v := validValues()
	v.Concurrency = 1
	v.Interval = 2 * time.Millisecond
	v.Order = queue.LIFO
	e := newEngine(t, rec.fn, v)

	var futs []*future.Future[int]
	for i := 1; i <= 3; i++ {
		f, err := e.Submit(i)
		require.NoError(t, err)
		futs = append(futs, f)
	}

	require.NoError(t, e.Init())

	for _, f := range futs {
		_, err := f.WaitTimeout(waitLong, "item not settled")
		require.NoError(t, err)
	}
	assert.Equal(t, []int{3, 2, 1}, rec.taken(), "LIFO takes the newest admission first")
}

func TestEngine_Backpressure(t *testing.T) {
	v := validValues()
	v.Limit = 2
	v.Timeout = 10 * time.Second
	e := newEngine(t, double, v)

	full := make(chan struct{}, 1)
	e.Emitter().Subscribe(queue.EventQueueFull, func(...interface{}) {
		full <- struct{}{}
	})

	_, err := e.Submit(1)
	require.NoError(t, err)
	_, err = e.Submit(2)
	require.NoError(t, err)

	_, err = e.Submit(3)
	require.ErrorIs(t, err, queue.ErrCapacityExceeded)
	assert.Equal(t, 2, e.Stats().QueueLength, "occupancy never exceeds the limit")

	select {
	case <-full:
	case <-time.After(waitLong):
		t.Fatal("expected a queue-full event")
	}
}

func TestEngine_QueueWaitTimeout(t *testing.T) {
	v := validValues()
	v.Timeout = 40 * time.Millisecond
	e := newEngine(t, double, v) // never initialized: nothing takes the item

	timedOut := make(chan interface{}, 1)
	e.Emitter().Subscribe(queue.EventItemTimedOut, func(payload ...interface{}) {
		if len(payload) > 0 {
			timedOut <- payload[0]
		}
	})

	f, err := e.Submit(1)
	require.NoError(t, err)

	_, err = f.WaitTimeout(waitLong, "guarded item not settled")
	require.ErrorIs(t, err, queue.ErrTimedOut)

	select {
	case p := <-timedOut:
		ev, ok := p.(queue.ItemTimedOut)
		require.True(t, ok)
		assert.GreaterOrEqual(t, ev.QueueTime, 40*time.Millisecond)
	case <-time.After(waitLong):
		t.Fatal("expected an item-timed-out event")
	}

	s := e.Stats()
	assert.EqualValues(t, 1, s.TimeoutCount)
	assert.Zero(t, s.QueueLength, "expired item leaves the queue")
}

func TestEngine_ProcessingTimeout(t *testing.T) {
	slow := func(ctx context.Context, v int) (int, error) {
		time.Sleep(300 * time.Millisecond)
		return v, nil
	}
	v := validValues()
	v.Interval = 2 * time.Millisecond
	v.Timeout = 60 * time.Millisecond
	e := newEngine(t, slow, v)
	require.NoError(t, e.Init())

	f, err := e.Submit(1)
	require.NoError(t, err)

	_, err = f.WaitTimeout(waitLong, "slow item not settled")
	require.ErrorIs(t, err, queue.ErrTimedOut)

	// The abandoned call completes later with no further effect:
	// the timeout is counted exactly once and nothing succeeds.
	time.Sleep(400 * time.Millisecond)
	s := e.Stats()
	assert.EqualValues(t, 1, s.TimeoutCount)
	assert.Zero(t, s.SuccessCount)
}

func TestEngine_SiblingIsolation(t *testing.T) {
	boom := errors.New("value 2 is cursed")
	pickyFn := func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v * 2, nil
	}
	v := validValues()
	v.Concurrency = 3
	v.Interval = 2 * time.Millisecond
	e := newEngine(t, pickyFn, v)

	f1, err := e.Submit(1)
	require.NoError(t, err)
	f2, err := e.Submit(2)
	require.NoError(t, err)
	f3, err := e.Submit(3)
	require.NoError(t, err)

	require.NoError(t, e.Init())

	got, err := f1.WaitTimeout(waitLong, "item 1 not settled")
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	_, err = f2.WaitTimeout(waitLong, "item 2 not settled")
	require.ErrorIs(t, err, boom)

	got, err = f3.WaitTimeout(waitLong, "item 3 not settled")
	require.NoError(t, err)
	assert.Equal(t, 6, got)

	s := e.Stats()
	assert.EqualValues(t, 2, s.SuccessCount)
	assert.EqualValues(t, 1, s.ErrorCount)
}

func TestEngine_PauseResume(t *testing.T) {
	v := validValues()
	v.Interval = 2 * time.Millisecond
	v.Timeout = 10 * time.Second
	e := newEngine(t, double, v)

	var paused, resumed int
	e.Emitter().Subscribe(queue.EventPaused, func(...interface{}) { paused++ })
	e.Emitter().Subscribe(queue.EventResumed, func(...interface{}) { resumed++ })

	require.NoError(t, e.Init())
	e.Pause()
	e.Pause() // redundant, no second event

	f, err := e.Submit(1)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.False(t, f.Settled(), "paused engine must not take items")

	e.Resume()
	e.Resume() // redundant, no second event

	got, err := f.WaitTimeout(waitLong, "item not settled after resume")
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	assert.Equal(t, 1, paused)
	assert.Equal(t, 1, resumed)
}

func TestEngine_Clear(t *testing.T) {
	t.Run("rejects pending futures when asked", func(t *testing.T) {
		v := validValues()
		v.Timeout = 10 * time.Second
		e := newEngine(t, double, v)

		f1, err := e.Submit(1)
		require.NoError(t, err)
		f2, err := e.Submit(2)
		require.NoError(t, err)

		e.Clear(true)

		for _, f := range []*future.Future[int]{f1, f2} {
			_, err := f.WaitTimeout(waitLong, "cleared item not settled")
			require.ErrorIs(t, err, queue.ErrCleared)
		}
		assert.Zero(t, e.Stats().QueueLength)
	})

	t.Run("leaves futures unsettled otherwise", func(t *testing.T) {
		v := validValues()
		v.Timeout = 10 * time.Second
		e := newEngine(t, double, v)

		f, err := e.Submit(1)
		require.NoError(t, err)

		e.Clear(false)
		time.Sleep(20 * time.Millisecond)
		assert.False(t, f.Settled())
		assert.Zero(t, e.Stats().QueueLength)
	})
}

func TestEngine_InitLifecycle(t *testing.T) {
	e := newEngine(t, double, validValues())

	require.NoError(t, e.Init())
	require.ErrorIs(t, e.Init(), queue.ErrAlreadyInitialized)

	// Drain tears the scheduler down and permits re-initialization.
	require.NoError(t, e.Drain())
	assert.False(t, e.Stats().Initialized)
	require.NoError(t, e.Init())
}

func TestEngine_Drain(t *testing.T) {
	v := validValues()
	v.Timeout = 10 * time.Second
	e := newEngine(t, double, v)

	drained := make(chan struct{}, 1)
	e.Emitter().Subscribe(queue.EventDrained, func(...interface{}) {
		drained <- struct{}{}
	})

	var futs []*future.Future[int]
	for i := 1; i <= 4; i++ {
		f, err := e.Submit(i)
		require.NoError(t, err)
		futs = append(futs, f)
	}

	require.NoError(t, e.Drain())

	for i, f := range futs {
		got, err := f.WaitTimeout(waitLong, "drained item not settled")
		require.NoError(t, err)
		assert.Equal(t, (i+1)*2, got)
	}
	s := e.Stats()
	assert.Zero(t, s.QueueLength)
	assert.False(t, s.SchedulerActive)
	select {
	case <-drained:
	case <-time.After(waitLong):
		t.Fatal("expected a drained event")
	}
}

func TestEngine_Destroy(t *testing.T) {
	v := validValues()
	v.Timeout = 10 * time.Second
	e := newEngine(t, double, v)

	var destroyed int
	e.Emitter().Subscribe(queue.EventDestroyed, func(...interface{}) { destroyed++ })

	require.NoError(t, e.Init())
	f, err := e.Submit(1)
	require.NoError(t, err)

	e.Destroy()
	e.Destroy() // idempotent

	_, err = f.WaitTimeout(waitLong, "destroyed item not settled")
	require.ErrorIs(t, err, queue.ErrCleared)

	_, err = e.Submit(2)
	require.ErrorIs(t, err, queue.ErrDestroyed)
	require.ErrorIs(t, e.Init(), queue.ErrDestroyed)
	require.ErrorIs(t, e.Drain(), queue.ErrDestroyed)

	s := e.Stats()
	assert.Zero(t, s.QueueLength)
	assert.False(t, s.SchedulerActive)
	assert.False(t, s.Initialized)
	assert.Equal(t, 1, destroyed, "destroyed event fires once")
}

func TestEngine_Stats(t *testing.T) {
	t.Run("fresh engine has NaN rates", func(t *testing.T) {
		e := newEngine(t, double, validValues())
		s := e.Stats()
		assert.True(t, math.IsNaN(s.SuccessRate))
		assert.True(t, math.IsNaN(s.TimeoutRate))
		assert.Zero(t, s.TotalProcessed)
	})

	t.Run("counters reset independently of the queue", func(t *testing.T) {
		v := validValues()
		v.Interval = 2 * time.Millisecond
		e := newEngine(t, double, v)
		require.NoError(t, e.Init())

		f, err := e.Submit(1)
		require.NoError(t, err)
		_, err = f.WaitTimeout(waitLong, "item not settled")
		require.NoError(t, err)
		require.EqualValues(t, 1, e.Stats().SuccessCount)

		e.ResetCounters()
		s := e.Stats()
		assert.Zero(t, s.SuccessCount)
		assert.Zero(t, s.ErrorCount)
		assert.Zero(t, s.TimeoutCount)
	})
}
