package config

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jpalmerr/usersboard"
)

func TestBuildOptions_Minimal(t *testing.T) {
	cfg, err := Parse([]byte("port: 9300\npage_count: 20\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	app, err := usersboard.New(BuildOptions(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))...)
	if err != nil {
		t.Fatalf("usersboard.New() error = %v", err)
	}

	if app.Port() != 9300 {
		t.Errorf("Port() = %d, want 9300", app.Port())
	}
	if got := app.Store().PageCount(); got != 20 {
		t.Errorf("PageCount() = %d, want 20", got)
	}
}

func TestBuildOptions_UpstreamAndSeed(t *testing.T) {
	yaml := `
upstream:
  url: http://localhost:9000
  timeout: 2s
  refresh_interval: 0s
seed:
  - type: user.traverse
    data:
      page: 4
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	opts := BuildOptions(cfg, nil)
	// port, page count, upstream, refresh, timeout, seed
	if len(opts) != 6 {
		t.Errorf("len(BuildOptions()) = %d, want 6", len(opts))
	}

	if _, err := usersboard.New(opts...); err != nil {
		t.Fatalf("usersboard.New() error = %v", err)
	}
}
