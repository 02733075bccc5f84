// Package syncer fetches pages of users from an upstream HTTP API and keeps
// them fresh on a timer.
//
// This package is internal to usersboard. It knows nothing about stores or
// dispatchers: [Client] turns a [Query] into a [Result], and [Refresher]
// calls a sync function at a fixed interval. The usersboard package glues
// both to the dispatcher.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [Refresher]: periodic trigger with idempotent Start/Stop
//   - [Query]: page, page size and filter for one fetch
//   - [Result]: one page of users plus the total count
package syncer
