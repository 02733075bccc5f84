// Package loop provides the deferred task queue that usersboard runs its
// dispatches and change notifications on.
//
// This package is internal to usersboard. A [Loop] is a FIFO of tasks run
// one at a time, either by [Loop.Run] on a dedicated goroutine or by
// [Loop.Drain] in the caller's goroutine. Posting a task never runs it
// inline, which is what gives change notifications their "after the current
// action settles" ordering.
package loop
