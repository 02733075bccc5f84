package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/usersboard"
	"github.com/jpalmerr/usersboard/users"
)

func main() {
	// start mock users API (see mock_server.go)
	go StartMockUsersServer(":9999")
	time.Sleep(100 * time.Millisecond)

	app, err := usersboard.New(
		usersboard.WithUpstream("http://localhost:9999"),
		usersboard.WithPageCount(20),
		usersboard.WithRefreshInterval(15*time.Second),
		usersboard.WithPort(8080),
		// start on the admins; the refresher's first sync fetches them
		usersboard.WithSeed(users.FilterAction{Filter: &users.Filter{Role: "admin"}}),
	)
	if err != nil {
		slog.Error("failed to create usersboard", "error", err)
		os.Exit(1)
	}

	store := app.Store()
	store.AddChangeListener(func() {
		slog.Info("users changed",
			"page", store.Page(),
			"shown", len(store.Users()),
			"count", store.Count(),
		)
	})

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   usersboard Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   curl http://localhost:8080/api/users                ║")
	fmt.Println("  ║   curl -N http://localhost:8080/api/sse               ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Mock upstream: 120 users on :9999                   ║")
	fmt.Println("  ║   Pages through the admins every 20 seconds           ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go walkPages(ctx, app)

	if err := app.Start(ctx); err != nil {
		slog.Error("usersboard error", "error", err)
		os.Exit(1)
	}
}

// walkPages moves through the pages of the current result set, wrapping at
// the end, the way a UI's "next page" button would.
func walkPages(ctx context.Context, app *usersboard.App) {
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store := app.Store()
			next := store.Page() + 1
			if next*store.PageCount() >= store.Count() {
				next = 0
			}
			if err := app.Traverse(ctx, next); err != nil && ctx.Err() == nil {
				slog.Warn("traverse failed", "page", next, "error", err)
			}
		}
	}
}
