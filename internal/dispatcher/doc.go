// Package dispatcher provides the Flux dispatcher used by usersboard.
//
// This package is internal to usersboard. A [Dispatcher] holds a set of
// registered callbacks and hands every dispatched action to all of them,
// synchronously and in registration order. Stores register a callback once
// and keep the returned [Token].
//
// Dispatches do not nest: calling [Dispatcher.Dispatch] from inside a
// callback fails with [ErrDispatchInProgress]. Callers that need to dispatch
// from several goroutines serialize through the loop package.
package dispatcher
