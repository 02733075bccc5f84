// Package users holds the user-list domain of usersboard: the record and
// filter types, the actions that change the list, their wire encoding, and
// [UsersStore], the Flux store that owns the list state.
//
// The store never mutates itself from the outside. State changes only when a
// dispatcher hands the store's registered callback one of the user actions:
//
//   - [TraverseAction]: moves to another page (no change signal)
//   - [FilterAction]: replaces the filter (change signal)
//   - [SyncAction]: replaces the page of users and the total count (change signal)
//
// Any other [Action] is ignored. Change signals carry no payload; listeners
// re-read the getters. Signals are posted to a scheduler rather than
// delivered inline, so every store finishes handling an action before any
// listener runs.
//
// Actions travel as a small envelope in JSON or YAML:
//
//	{"type": "user.sync", "data": {"users": [...], "count": 2}}
package users
