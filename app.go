package usersboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/usersboard/internal/dispatcher"
	"github.com/jpalmerr/usersboard/internal/loop"
	"github.com/jpalmerr/usersboard/internal/server"
	"github.com/jpalmerr/usersboard/internal/syncer"
	"github.com/jpalmerr/usersboard/internal/telemetry"
	"github.com/jpalmerr/usersboard/users"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultRefreshInterval = 30 * time.Second
	defaultUpstreamTimeout = 10 * time.Second
)

// App wires one dispatcher, one task loop and one [users.UsersStore].
//
// App replaces the module-level singleton of a browser Flux app: it is built
// once at startup with [New] and the store it owns is handed to consumers
// through [App.Store]. The store stays registered for the App's lifetime.
//
// While [App.Start] runs, every dispatch and every change notification
// executes on the loop goroutine, one at a time, so listeners always see a
// fully settled state.
type App struct {
	loop       *loop.Loop
	dispatcher *dispatcher.Dispatcher[users.Action]
	store      *users.UsersStore
	client     *syncer.Client

	port            int
	refreshInterval time.Duration
	seed            []users.Action
	logger          *slog.Logger
	tracer          trace.Tracer

	mu      sync.Mutex
	running bool
}

// New creates an [App] with the given options.
//
// Defaults:
//   - Page count: 50 (reported by the store until configured)
//   - HTTP server: disabled until [WithPort] is given
//   - Upstream: none; [App.Sync] returns [ErrNoUpstream]
//   - Refresh interval: 30 seconds when an upstream is configured
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*App, error) {
	cfg := &appConfig{
		refreshInterval: defaultRefreshInterval,
		upstreamTimeout: defaultUpstreamTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	l := loop.New(logger)
	d := dispatcher.New[users.Action](logger)

	storeOpts := []users.StoreOption{users.WithStoreLogger(logger)}
	if cfg.pageCount > 0 {
		storeOpts = append(storeOpts, users.WithPageCount(cfg.pageCount))
	}
	store, err := users.NewStore(d, l, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create users store: %w", err)
	}

	app := &App{
		loop:            l,
		dispatcher:      d,
		store:           store,
		port:            cfg.port,
		refreshInterval: cfg.refreshInterval,
		seed:            cfg.seed,
		logger:          logger,
		tracer:          telemetry.Tracer(cfg.tracerProvider),
	}

	if cfg.upstreamURL != "" {
		client, err := syncer.NewClient(cfg.upstreamURL, cfg.upstreamTimeout)
		if err != nil {
			return nil, err
		}
		app.client = client
	}

	return app, nil
}

// Store returns the users store owned by the App.
func (a *App) Store() *users.UsersStore {
	return a.store
}

// ErrNilAction is returned by [App.Dispatch] when given a nil action.
var ErrNilAction = errors.New("action is nil")

// states of a dispatch task queued by [App.run]
const (
	taskPending int32 = iota
	taskStarted
	taskAbandoned
)

// Dispatch runs action through the dispatcher and waits for it to finish.
//
// While [App.Start] is running the dispatch is queued on the loop and
// Dispatch blocks until it has run or ctx is done. If ctx ends before the
// task starts, the task is abandoned and Dispatch returns ctx.Err(); the
// action is then never applied. Once the task has started, Dispatch waits
// for it and returns its result. Do not call Dispatch from a change listener
// while running; use [App.Post] there.
//
// When the App is not running, Dispatch dispatches in the caller's goroutine
// and then flushes pending notifications, which suits single-goroutine use.
func (a *App) Dispatch(ctx context.Context, action users.Action) error {
	if action == nil {
		return ErrNilAction
	}
	_, err := a.dispatchIf(ctx, action, nil)
	return err
}

// dispatchIf dispatches action when cond, evaluated on the loop right before
// the dispatch, reports true. A nil cond always holds. applied reports
// whether the action reached the dispatcher.
func (a *App) dispatchIf(ctx context.Context, action users.Action, cond func() bool) (applied bool, err error) {
	ctx, span := a.tracer.Start(ctx, "usersboard.dispatch",
		trace.WithAttributes(attribute.String("usersboard.action.type", action.ActionType().String())),
	)
	defer func() {
		span.SetAttributes(attribute.Bool("usersboard.action.applied", applied))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	err = a.run(ctx, func() error {
		if cond != nil && !cond() {
			return nil
		}
		applied = true
		return a.dispatcher.Dispatch(action)
	})
	return applied, err
}

// run executes fn on the loop while the App is running, or inline followed
// by a flush when it is not. The running check and the post happen under
// a.mu, so a task is never queued after Start has stopped draining.
func (a *App) run(ctx context.Context, fn func() error) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		err := fn()
		a.Flush()
		return err
	}

	var state atomic.Int32
	done := make(chan error, 1)
	a.loop.Post(func() {
		if !state.CompareAndSwap(taskPending, taskStarted) {
			return
		}
		done <- fn()
	})
	a.mu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if state.CompareAndSwap(taskPending, taskAbandoned) {
			return ctx.Err()
		}
		// already running; dispatch is synchronous, so this is short
		return <-done
	}
}

// Post queues action on the loop without waiting. Dispatch errors are logged.
func (a *App) Post(action users.Action) {
	if action == nil {
		return
	}
	a.loop.Post(func() {
		if err := a.dispatcher.Dispatch(action); err != nil {
			a.logger.Error("dispatch failed", "type", action.ActionType().String(), "error", err)
		}
	})
}

// DispatchNow dispatches action synchronously in the caller's goroutine.
// Change notifications stay queued until [App.Flush] or the running loop
// picks them up.
func (a *App) DispatchNow(action users.Action) error {
	return a.dispatcher.Dispatch(action)
}

// Flush runs every queued task in the caller's goroutine and returns how many
// ran. Must not be called while [App.Start] is running.
func (a *App) Flush() int {
	return a.loop.Drain()
}

// Start runs the App until ctx is cancelled.
//
// Start dispatches the seed actions, starts the HTTP server (when a port is
// configured) and the upstream refresher (when an upstream is configured),
// then runs the task loop on the calling goroutine.
//
// Returns nil on graceful shutdown, or an error if the App is already
// running or the HTTP server cannot bind its port.
func (a *App) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("app is already running")
	}
	// seed goes in before any Dispatch can see running == true
	for _, action := range a.seed {
		a.Post(action)
	}
	a.running = true
	a.mu.Unlock()

	defer a.stop()

	a.logger.Info("usersboard starting",
		"page_count", a.store.PageCount(),
		"seed_actions", len(a.seed),
		"upstream", a.client != nil,
	)

	if a.port > 0 {
		srv := server.NewServer(a.store, a, a.port, a.logger)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		a.logger.Info("api available", "url", fmt.Sprintf("http://localhost:%d/api/users", a.port))
	}

	if a.client != nil {
		defer a.client.Close()

		if a.refreshInterval > 0 {
			refresher := syncer.NewRefresher(a.refreshInterval, a.Sync, a.logger)
			refresher.Start(ctx)
			defer refresher.Stop()
			a.logger.Info("refresh configured", "interval", a.refreshInterval.String())
		}
	}

	err := a.loop.Run(ctx)
	a.stop()
	a.logger.Info("usersboard stopped")
	return err
}

// stop marks the App as not running and drains what the loop left behind.
// Tasks posted before running went false are either run here or, when their
// caller has given up, skipped. Safe to call more than once.
func (a *App) stop() {
	a.mu.Lock()
	wasRunning := a.running
	a.running = false
	a.mu.Unlock()

	if !wasRunning {
		return
	}
	if n := a.loop.Drain(); n > 0 {
		a.logger.Debug("drained tasks after stop", "tasks", n)
	}
}

// Port returns the configured HTTP port, 0 when the server is disabled.
func (a *App) Port() int {
	return a.port
}

func (a *App) isRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
