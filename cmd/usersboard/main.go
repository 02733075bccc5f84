// Package main is the entry point for the usersboard CLI.
//
// Usage:
//
//	usersboard serve -c config.yaml      # Start the API
//	usersboard validate -c config.yaml   # Validate configuration
//	usersboard replay -f actions.yaml    # Replay actions and print the final state
//	usersboard version                   # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "usersboard",
	Short: "A Flux-style users store with an HTTP API",
	Long: `usersboard holds one page of users, the page cursor, a filter and the
total count, and changes them only in response to dispatched actions.

Actions arrive over HTTP (POST /api/actions), from a seed list in the
config file, or from an upstream users API that is synced periodically.
Clients read /api/users or follow /api/sse for change notifications.

Quick start:
  1. Create a config file (usersboard.yaml)
  2. Run: usersboard serve -c usersboard.yaml
  3. curl http://localhost:8080/api/users

Example config:
  port: 8080
  page_count: 50
  upstream:
    url: https://users.example.com/api
    refresh_interval: 30s`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger creates a JSON logger on stderr.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this usersboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "usersboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
