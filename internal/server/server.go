package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jpalmerr/usersboard/internal/dispatcher"
	"github.com/jpalmerr/usersboard/users"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	// sseWriteTimeout bounds a single SSE write so slow or gone clients do
	// not pin the handler goroutine. Must be <= shutdown timeout.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// maxActionBodySize caps POST /api/actions bodies.
	maxActionBodySize = 1 << 20
)

// Store is the read and subscribe side of the users store.
type Store interface {
	Snapshot() users.State
	AddChangeListener(fn func()) users.ListenerID
	RemoveChangeListener(id users.ListenerID)
}

// Dispatcher runs an action to completion or until ctx is done.
type Dispatcher interface {
	Dispatch(ctx context.Context, action users.Action) error
}

// Server handles HTTP requests for the usersboard API.
type Server struct {
	store      Store
	dispatcher Dispatcher
	port       int
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server]. It does not listen until
// [Server.Start] is called.
func NewServer(st Store, d Dispatcher, port int, logger *slog.Logger) *Server {
	return &Server{
		store:      st,
		dispatcher: d,
		port:       port,
		logger:     logger,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", s.handleUsers)
	mux.HandleFunc("/api/actions", s.handleActions)
	mux.HandleFunc("/api/sse", s.handleSSE)
	return mux
}

// Start binds the port and serves in a background goroutine.
//
// Start returns once the listener is bound. The server shuts down
// gracefully when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler: s.Handler(),
		// request contexts end with ctx, which lets SSE handlers return on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleUsers returns the current store snapshot as JSON.
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleActions decodes one action envelope and dispatches it.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxActionBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	action, err := users.DecodeJSON(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// continue the caller's trace, if any
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	if err := s.dispatcher.Dispatch(ctx, action); err != nil {
		switch {
		case errors.Is(err, dispatcher.ErrDispatchInProgress):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "dispatch cancelled", http.StatusServiceUnavailable)
		default:
			s.logger.Error("dispatch failed", "type", action.ActionType().String(), "error", err)
			http.Error(w, "dispatch failed", http.StatusInternalServerError)
		}
		return
	}

	s.logger.Debug("action dispatched", "type", action.ActionType().String())
	s.writeJSON(w, http.StatusAccepted, s.store.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams a snapshot on connect and after every change signal.
//
// Change signals are coalesced: a client that falls behind gets the latest
// snapshot once rather than every intermediate one.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeSnapshot := func() error {
		data, err := json.Marshal(s.store.Snapshot())
		if err != nil {
			return err
		}

		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	changed := make(chan struct{}, 1)
	id := s.store.AddChangeListener(func() {
		select {
		case changed <- struct{}{}:
		default:
			// a signal is already pending
		}
	})
	defer s.store.RemoveChangeListener(id)

	if err := writeSnapshot(); err != nil {
		return
	}

	for {
		select {
		case <-changed:
			if err := writeSnapshot(); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
