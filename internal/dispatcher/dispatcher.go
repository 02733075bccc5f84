package dispatcher

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrDispatchInProgress is returned when Dispatch is called while
	// another dispatch is still running.
	ErrDispatchInProgress = errors.New("cannot dispatch in the middle of a dispatch")

	// ErrCallbackPanic wraps a panic recovered from a registered callback.
	ErrCallbackPanic = errors.New("dispatch callback panicked")
)

// Token identifies a registered callback.
type Token string

type registration[A any] struct {
	token Token
	cb    func(A)
}

// Dispatcher delivers actions of type A to registered callbacks.
type Dispatcher[A any] struct {
	mu          sync.Mutex
	callbacks   []registration[A]
	dispatching bool
	logger      *slog.Logger
}

// New creates an empty [Dispatcher]. A nil logger falls back to slog.Default().
func New[A any](logger *slog.Logger) *Dispatcher[A] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher[A]{logger: logger}
}

// Register adds cb and returns the token needed to unregister it.
func (d *Dispatcher[A]) Register(cb func(A)) Token {
	token := Token(uuid.NewString())

	d.mu.Lock()
	d.callbacks = append(d.callbacks, registration[A]{token: token, cb: cb})
	d.mu.Unlock()

	return token
}

// Unregister removes the callback for token. Unknown tokens are a no-op.
func (d *Dispatcher[A]) Unregister(token Token) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, r := range d.callbacks {
		if r.token == token {
			next := make([]registration[A], 0, len(d.callbacks)-1)
			next = append(next, d.callbacks[:i]...)
			d.callbacks = append(next, d.callbacks[i+1:]...)
			return
		}
	}
}

// IsDispatching reports whether a dispatch is running.
func (d *Dispatcher[A]) IsDispatching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dispatching
}

// Dispatch hands action to every registered callback in the caller's
// goroutine and returns once all of them have run.
//
// A panicking callback does not stop the remaining callbacks; the panics are
// joined into the returned error, each wrapping [ErrCallbackPanic].
func (d *Dispatcher[A]) Dispatch(action A) error {
	d.mu.Lock()
	if d.dispatching {
		d.mu.Unlock()
		return ErrDispatchInProgress
	}
	d.dispatching = true
	snapshot := d.callbacks
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.dispatching = false
		d.mu.Unlock()
	}()

	var errs []error
	for _, r := range snapshot {
		if err := d.invokeSafe(r, action); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// invokeSafe calls a callback with panic recovery.
// The stack is logged with a correlation ID that is also put in the error.
func (d *Dispatcher[A]) invokeSafe(r registration[A], action A) (err error) {
	defer func() {
		if p := recover(); p != nil {
			correlationID := uuid.NewString()
			d.logger.Error("dispatch callback panic",
				"correlation_id", correlationID,
				"token", string(r.token),
				"panic", fmt.Sprintf("%v", p),
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w (correlation_id: %s)", ErrCallbackPanic, correlationID)
		}
	}()
	r.cb(action)
	return nil
}
