package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jpalmerr/usersboard"
	"github.com/jpalmerr/usersboard/config"
	"github.com/jpalmerr/usersboard/users"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// replayCmd dispatches a file of actions against a fresh store.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay actions and print the resulting state",
	Long: `Dispatch a YAML list of actions against a fresh users store, in order,
and print the final store state as YAML.

The config file is optional; when given, its page_count and seed actions
apply and the seed runs before the replayed actions. No server is started
and the upstream is never contacted.

Actions file format:
  - type: user.sync
    data:
      users:
        - id: "1"
          username: alice
      count: 1
  - type: user.traverse
    data:
      page: 2

Example:
  usersboard replay -f actions.yaml
  usersboard replay -f actions.yaml -c usersboard.yaml`,
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringP("file", "f", "", "path to actions file (required)")
	replayCmd.Flags().StringP("config", "c", "", "path to config file")
	replayCmd.Flags().BoolP("verbose", "v", false, "log each change notification to stderr")
	_ = replayCmd.MarkFlagRequired("file")
}

// replayResult is what replay prints.
type replayResult struct {
	Dispatched    int         `yaml:"dispatched"`
	Notifications int         `yaml:"notifications"`
	State         users.State `yaml:"state"`
}

func runReplay(cmd *cobra.Command, args []string) error {
	actionsFile, _ := cmd.Flags().GetString("file")
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	actions, err := loadActions(actionsFile)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := newLogger(level)

	opts := []usersboard.Option{usersboard.WithLogger(logger)}
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		opts = append(opts, usersboard.WithPageCount(cfg.PageCount))
		actions = append(cfg.Actions(), actions...)
	}

	app, err := usersboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	notifications := 0
	app.Store().AddChangeListener(func() {
		notifications++
		logger.Debug("change", "page", app.Store().Page(), "count", app.Store().Count())
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	for i, a := range actions {
		if err := app.Dispatch(ctx, a); err != nil {
			return fmt.Errorf("action %d (%s): %w", i, a.ActionType(), err)
		}
	}

	return writeYAML(cmd.OutOrStdout(), replayResult{
		Dispatched:    len(actions),
		Notifications: notifications,
		State:         app.Store().Snapshot(),
	})
}

// loadActions reads a YAML list of action envelopes.
func loadActions(path string) ([]users.Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read actions file: %w", err)
	}

	var envs []users.Envelope
	if err := yaml.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("failed to parse actions file: %w", err)
	}

	actions := make([]users.Action, 0, len(envs))
	for _, e := range envs {
		actions = append(actions, e.Action)
	}
	return actions, nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return enc.Close()
}
