// Package emitter provides a named-event publish/subscribe primitive owned
// by a single engine instance. It is deliberately not a process-wide bus:
// every engine creates its own Emitter, and releasing the engine releases
// all of its subscriptions.
//
// Handlers are invoked synchronously in subscription order. A panicking
// handler is recovered and logged, never propagated: a misbehaving listener
// cannot corrupt the publishing engine's state.
package emitter

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler receives the payload published for an event.
type Handler func(payload ...interface{})

type subscription struct {
	id      uint64
	handler Handler
	once    bool
}

// Emitter is an instance-scoped event registry. Create one with New.
type Emitter struct {
	logger logrus.FieldLogger

	mu     sync.Mutex
	nextID uint64
	subs   map[string][]*subscription
	hooks  map[string]func()
	closed bool
}

// New returns an empty Emitter. Logging defaults to discard; use WithLogger
// to surface recovered handler panics.
func New() *Emitter {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Emitter{
		logger: discard,
		subs:   make(map[string][]*subscription),
		hooks:  make(map[string]func()),
	}
}

// WithLogger sets the logger used for recovered handler panics and returns
// the emitter for chaining.
func (e *Emitter) WithLogger(logger logrus.FieldLogger) *Emitter {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Subscribe registers a handler for an event and returns a function that
// removes exactly that registration. Unsubscribing twice is a no-op.
func (e *Emitter) Subscribe(event string, handler Handler) func() {
	return e.subscribe(event, handler, false)
}

// SubscribeOnce registers a handler that is removed after its first
// invocation. The returned function removes it early.
func (e *Emitter) SubscribeOnce(event string, handler Handler) func() {
	return e.subscribe(event, handler, true)
}

func (e *Emitter) subscribe(event string, handler Handler, once bool) func() {
	if handler == nil {
		return func() {}
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return func() {}
	}

	e.nextID++
	sub := &subscription{id: e.nextID, handler: handler, once: once}
	first := len(e.subs[event]) == 0
	e.subs[event] = append(e.subs[event], sub)

	var hook func()
	if first {
		hook = e.hooks[event]
	}
	e.mu.Unlock()

	if hook != nil {
		hook()
	}

	id := sub.id
	return func() { e.remove(event, id) }
}

// Unsubscribe removes every handler registered for the event.
func (e *Emitter) Unsubscribe(event string) {
	e.mu.Lock()
	delete(e.subs, event)
	e.mu.Unlock()
}

// OnFirstSubscribe registers a hook fired whenever a subscriber attaches
// to an event that previously had none. Passing nil clears the hook.
func (e *Emitter) OnFirstSubscribe(event string, hook func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hook == nil {
		delete(e.hooks, event)
		return
	}
	e.hooks[event] = hook
}

// Publish invokes every handler registered for the event with the payload.
// Handlers registered with SubscribeOnce are removed before invocation, so
// a handler publishing the same event recursively cannot re-enter itself.
func (e *Emitter) Publish(event string, payload ...interface{}) {
	e.mu.Lock()
	subs := e.subs[event]
	if len(subs) == 0 {
		e.mu.Unlock()
		return
	}

	// Snapshot so handlers can subscribe/unsubscribe without deadlocking,
	// and prune once-handlers while the lock is held.
	run := make([]*subscription, len(subs))
	copy(run, subs)

	kept := subs[:0]
	for _, s := range subs {
		if !s.once {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		delete(e.subs, event)
	} else {
		e.subs[event] = kept
	}
	e.mu.Unlock()

	for _, s := range run {
		e.invoke(event, s.handler, payload)
	}
}

func (e *Emitter) invoke(event string, handler Handler, payload []interface{}) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(logrus.Fields{
				"event": event,
				"panic": r,
			}).Error("event handler panicked")
		}
	}()
	handler(payload...)
}

// Close removes all subscriptions and hooks. Subscribing to a closed
// emitter is a no-op, publishing delivers to nobody.
func (e *Emitter) Close() {
	e.mu.Lock()
	e.closed = true
	e.subs = make(map[string][]*subscription)
	e.hooks = make(map[string]func())
	e.mu.Unlock()
}

func (e *Emitter) remove(event string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	subs := e.subs[event]
	for i, s := range subs {
		if s.id == id {
			e.subs[event] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(e.subs[event]) == 0 {
		delete(e.subs, event)
	}
}
