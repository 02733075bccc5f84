// Package usersboard provides a Flux-style state container for a paged list
// of users, with an optional HTTP API and upstream synchronisation.
//
// State flows one way. Action creators and HTTP clients dispatch actions,
// the dispatcher hands each action to the users store, the store mutates
// itself and posts a "change" signal, and listeners re-read the store once
// the action has fully settled.
//
// # Quick Start
//
// Build the App once at startup and inject its store where it is needed:
//
//	app, _ := usersboard.New(usersboard.WithUpstream("https://users.example.com/api"))
//	store := app.Store()
//
//	store.AddChangeListener(func() {
//	    render(store.Users(), store.Page(), store.PageCount(), store.Count())
//	})
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	go app.Start(ctx) // runs the loop until ctx is cancelled
//	_ = app.Traverse(ctx, 2)
//
// # Actions
//
// The users store reacts to three actions from the users package:
//
//   - [users.TraverseAction]: sets the page; no change signal, a sync follows
//   - [users.FilterAction]: sets or clears the filter; change signal
//   - [users.SyncAction]: sets users and count; change signal
//
// Everything else is ignored.
//
// # Configuration
//
// App uses the functional options pattern:
//
//	app, err := usersboard.New(
//	    usersboard.WithPort(8080),
//	    usersboard.WithPageCount(25),
//	    usersboard.WithRefreshInterval(time.Minute),
//	    usersboard.WithLogger(logger),
//	)
//
// # Architecture
//
// usersboard consists of several internal packages (under internal/):
//
//   - dispatcher: synchronous Flux dispatcher with registration tokens
//   - emitter: named-event listeners with deferred emission
//   - loop: FIFO task queue that runs dispatches and notifications
//   - syncer: upstream HTTP client and periodic refresher
//   - server: JSON API and Server-Sent Events stream
//
// The users package holds the domain types and the store, and the config
// package loads YAML configuration for the usersboard command.
package usersboard
