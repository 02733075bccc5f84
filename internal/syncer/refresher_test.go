package syncer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresher_RunsImmediatelyAndOnTick(t *testing.T) {
	var calls atomic.Int32
	r := NewRefresher(20*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, testLogger())

	r.Start(context.Background())
	time.Sleep(110 * time.Millisecond)
	r.Stop()

	if got := calls.Load(); got < 2 {
		t.Errorf("sync calls = %d, want at least 2", got)
	}
}

func TestRefresher_StopIsIdempotent(t *testing.T) {
	r := NewRefresher(time.Hour, func(context.Context) error { return nil }, testLogger())

	r.Start(context.Background())
	r.Stop()
	r.Stop()
}

func TestRefresher_StopBeforeStart(t *testing.T) {
	var calls atomic.Int32
	r := NewRefresher(time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, testLogger())

	r.Stop()
	r.Start(context.Background())
	time.Sleep(20 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("sync calls = %d, want 0", got)
	}
}

func TestRefresher_ContextCancellationStops(t *testing.T) {
	var calls atomic.Int32
	r := NewRefresher(10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return nil
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	time.Sleep(30 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return after context cancellation")
	}
}

func TestRefresher_SurvivesErrorsAndPanics(t *testing.T) {
	var calls atomic.Int32
	r := NewRefresher(10*time.Millisecond, func(context.Context) error {
		n := calls.Add(1)
		switch n {
		case 1:
			panic("boom")
		case 2:
			return errors.New("upstream down")
		}
		return nil
	}, testLogger())

	r.Start(context.Background())
	time.Sleep(80 * time.Millisecond)
	r.Stop()

	if got := calls.Load(); got < 3 {
		t.Errorf("sync calls = %d, want at least 3", got)
	}
}
