// Package emitter provides named-event publish/subscribe with deferred
// emission for usersboard stores.
package emitter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ListenerID identifies a registered listener. Funcs are not comparable in
// Go, so removal goes through the handle returned by [Emitter.On].
type ListenerID string

// Scheduler accepts tasks to run later. loop.Loop satisfies it.
type Scheduler interface {
	Post(task func())
}

type listener struct {
	id ListenerID
	fn func()
}

// Emitter holds listeners per event name.
//
// Emitter is safe for concurrent use. Listeners are invoked in registration
// order without any lock held, so a listener may add or remove listeners.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]listener
	scheduler Scheduler
	logger    *slog.Logger
}

// New creates an [Emitter] whose deferred emissions go through scheduler.
func New(scheduler Scheduler, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		listeners: make(map[string][]listener),
		scheduler: scheduler,
		logger:    logger,
	}
}

// On registers fn for event and returns its handle.
// The same fn may be registered more than once; each registration is separate.
func (e *Emitter) On(event string, fn func()) ListenerID {
	id := ListenerID(uuid.NewString())

	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], listener{id: id, fn: fn})
	e.mu.Unlock()

	return id
}

// Off removes the listener with id from event. Unknown ids are a no-op.
func (e *Emitter) Off(event string, id ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.listeners[event]
	for i, l := range current {
		if l.id != id {
			continue
		}
		// copy so snapshots taken by an in-flight Emit stay intact
		next := make([]listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(e.listeners, event)
		} else {
			e.listeners[event] = next
		}
		return
	}
}

// ListenerCount returns the number of listeners registered for event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// Emit calls every listener of event synchronously.
func (e *Emitter) Emit(event string) {
	e.mu.RLock()
	snapshot := e.listeners[event]
	e.mu.RUnlock()

	for _, l := range snapshot {
		e.invokeSafe(event, l)
	}
}

// EmitDefer schedules Emit(event) on the scheduler. The listener set is
// resolved when the task runs, not when it is posted. Without a scheduler
// the event is emitted immediately.
func (e *Emitter) EmitDefer(event string) {
	if e.scheduler == nil {
		e.Emit(event)
		return
	}
	e.scheduler.Post(func() { e.Emit(event) })
}

// invokeSafe calls a listener with panic recovery.
func (e *Emitter) invokeSafe(event string, l listener) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("listener panicked",
				"event", event,
				"listener_id", string(l.id),
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	l.fn()
}
