// Package server provides the HTTP surface of usersboard.
//
// This package is internal to usersboard and handles all HTTP concerns:
//
//   - Snapshot API: JSON view of the users store at "/api/users"
//   - Action API: JSON action envelopes dispatched via "/api/actions"
//   - Server-Sent Events: one snapshot per change signal at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the usersboard library should not need to interact with this
// package directly. The server is started by [usersboard.App.Start].
package server
