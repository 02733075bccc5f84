package loop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Loop is a single-consumer FIFO task queue.
//
// Post is safe for concurrent use. Tasks are executed one at a time in the
// order they were posted; a task posted while another task runs is queued
// behind everything already pending.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	logger *slog.Logger
}

// New creates an empty [Loop]. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Post appends a task to the queue. Nil tasks are ignored.
func (l *Loop) Post(task func()) {
	if task == nil {
		return
	}

	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	// non-blocking: one pending wake-up is enough for Run to drain everything
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Drain runs queued tasks in the caller's goroutine until the queue is empty,
// including tasks posted by the tasks it runs. Returns the number of tasks run.
//
// Drain must not be called concurrently with [Loop.Run].
func (l *Loop) Drain() int {
	n := 0
	for {
		task, ok := l.next()
		if !ok {
			return n
		}
		l.runSafe(task)
		n++
	}
}

// Run executes tasks as they are posted until ctx is cancelled.
//
// Run blocks and returns nil on cancellation. Tasks still queued at that
// point are left in the queue.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()

		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

// next pops the oldest task.
func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return task, true
}

// runSafe runs a task with panic recovery so one bad task cannot stop the loop.
func (l *Loop) runSafe(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panic",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	task()
}
