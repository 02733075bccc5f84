package usersboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jpalmerr/usersboard/users"
	"go.opentelemetry.io/otel/trace"
)

// appConfig holds mutable state during App construction.
type appConfig struct {
	pageCount       int
	port            int
	upstreamURL     string
	upstreamTimeout time.Duration
	refreshInterval time.Duration
	seed            []users.Action
	logger          *slog.Logger
	tracerProvider  trace.TracerProvider
}

// Option is a function that configures an [App] during construction.
//
// Options return an error if validation fails.
type Option func(*appConfig) error

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithPageCount sets the page size stored in the users store. Without it
// the store reports 50.
//
// Returns an error if n is zero or negative.
func WithPageCount(n int) Option {
	return func(cfg *appConfig) error {
		if n <= 0 {
			return errors.New("page count must be positive")
		}
		cfg.pageCount = n
		return nil
	}
}

// WithPort enables the HTTP API on the given port.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *appConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithUpstream sets the base URL of the API that serves user pages.
// [App.Sync], [App.Traverse] and [App.SetFilter] fetch from it.
//
// Returns an error if the URL is empty.
func WithUpstream(url string) Option {
	return func(cfg *appConfig) error {
		if url == "" {
			return errors.New("upstream url cannot be empty")
		}
		cfg.upstreamURL = url
		return nil
	}
}

// WithUpstreamTimeout sets the per-request timeout for upstream fetches.
// Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d <= 0 {
			return errors.New("upstream timeout must be positive")
		}
		cfg.upstreamTimeout = d
		return nil
	}
}

// WithRefreshInterval sets how often [App.Start] re-syncs from the upstream.
// Zero disables periodic refresh. Defaults to 30 seconds.
//
// Returns an error if the duration is negative.
func WithRefreshInterval(d time.Duration) Option {
	return func(cfg *appConfig) error {
		if d < 0 {
			return errors.New("refresh interval cannot be negative")
		}
		cfg.refreshInterval = d
		return nil
	}
}

// WithSeed queues actions to dispatch first when [App.Start] runs.
// Can be called multiple times; actions keep their order. Nil actions are
// skipped.
func WithSeed(actions ...users.Action) Option {
	return func(cfg *appConfig) error {
		for _, a := range actions {
			if a != nil {
				cfg.seed = append(cfg.seed, a)
			}
		}
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry provider for dispatch and sync
// spans. Defaults to the global provider, which is a no-op until
// configured.
//
// Returns an error if tp is nil.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *appConfig) error {
		if tp == nil {
			return errors.New("tracer provider cannot be nil")
		}
		cfg.tracerProvider = tp
		return nil
	}
}
