package config

import (
	"log/slog"

	"github.com/jpalmerr/usersboard"
)

// BuildOptions converts parsed configuration into App options.
//
// The returned options always enable the HTTP API on cfg.Port. Upstream
// options are only included when an upstream URL is configured.
func BuildOptions(cfg *Config, logger *slog.Logger) []usersboard.Option {
	opts := []usersboard.Option{
		usersboard.WithPort(cfg.Port),
		usersboard.WithPageCount(cfg.PageCount),
	}

	if logger != nil {
		opts = append(opts, usersboard.WithLogger(logger))
	}

	if cfg.Upstream.URL != "" {
		opts = append(opts,
			usersboard.WithUpstream(cfg.Upstream.URL),
			usersboard.WithRefreshInterval(cfg.Upstream.RefreshIntervalOrDefault()),
		)
		if cfg.Upstream.Timeout != 0 {
			opts = append(opts, usersboard.WithUpstreamTimeout(cfg.Upstream.Timeout.Duration()))
		}
	}

	if len(cfg.Seed) > 0 {
		opts = append(opts, usersboard.WithSeed(cfg.Actions()...))
	}

	return opts
}
