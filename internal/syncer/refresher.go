package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Refresher calls a sync function immediately on start and then at a fixed
// interval until stopped.
//
// Start and Stop are idempotent and safe for concurrent use. A sync call
// that is still running when the next tick fires delays that tick; calls
// never overlap.
type Refresher struct {
	interval time.Duration
	sync     func(context.Context) error
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRefresher creates a [Refresher]. The interval must be positive.
func NewRefresher(interval time.Duration, syncFn func(context.Context) error, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		interval: interval,
		sync:     syncFn,
		logger:   logger,
	}
}

// Start begins refreshing in a background goroutine.
// If Stop was called before Start, Start is a no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		r.runSafe(runCtx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.runSafe(runCtx)
			}
		}
	}()
}

// Stop halts refreshing and waits for an in-flight sync to return.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		if r.cancel != nil {
			r.cancel()
		}
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// runSafe calls the sync function, logging errors and recovered panics.
func (r *Refresher) runSafe(ctx context.Context) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("refresh panic",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", p),
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := r.sync(ctx); err != nil && ctx.Err() == nil {
		r.logger.Warn("refresh failed", "error", err)
	}
}
