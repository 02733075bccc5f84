package main

import (
	"fmt"

	"github.com/jpalmerr/usersboard/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a usersboard configuration file without starting the server.

This command parses the YAML, expands environment variables, applies
USERSBOARD_* overrides and validates all fields.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  usersboard validate -c usersboard.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	upstream := "none"
	if cfg.Upstream.URL != "" {
		upstream = fmt.Sprintf("%s (refresh %s)", cfg.Upstream.URL, cfg.Upstream.RefreshIntervalOrDefault())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:         %d\n", cfg.Port)
	fmt.Fprintf(out, "  Page count:   %d\n", cfg.PageCount)
	fmt.Fprintf(out, "  Log level:    %s\n", cfg.LogLevel)
	fmt.Fprintf(out, "  Upstream:     %s\n", upstream)
	fmt.Fprintf(out, "  Seed actions: %d\n", len(cfg.Seed))
	if cfg.Tracing.Endpoint != "" {
		fmt.Fprintf(out, "  Tracing:      %s\n", cfg.Tracing.Endpoint)
	}

	return nil
}
