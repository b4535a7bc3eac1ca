package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("COLUMN_WIDTH", "")
	t.Setenv("MAX_ITEMS", "")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.ColumnWidth != defaultColumnWidth {
		t.Fatalf("expected default column width %d, got %d", defaultColumnWidth, cfg.ColumnWidth)
	}
	if len(cfg.InitialVariants) != 2 {
		t.Fatalf("expected two default carrier variants, got %d", len(cfg.InitialVariants))
	}
	if cfg.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("COLUMN_WIDTH", "1100")
	t.Setenv("MAX_ITEMS", "12")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.ColumnWidth != 1100 {
		t.Fatalf("expected overridden column width, got %d", cfg.ColumnWidth)
	}
	if cfg.MaxItems != 12 {
		t.Fatalf("expected overridden max items, got %d", cfg.MaxItems)
	}
}

func TestLoadYAMLConfig(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("COLUMN_WIDTH", "")
	t.Setenv("MAX_ITEMS", "")

	content := `
port: "8090"
column_width: 1000
min_item_length: 500
max_item_length: 9000
solve_timeout: "2s"
carriers:
  - model:
      name: "box-truck"
      columns:
        - capacity: 6200
          carrier: 0
        - capacity: 6200
          carrier: 0
    permutation_fallback: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(&CLIOverrides{ConfigFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "8090" {
		t.Fatalf("expected port 8090, got %s", cfg.Port)
	}
	if cfg.ColumnWidth != 1000 {
		t.Fatalf("expected column width 1000, got %d", cfg.ColumnWidth)
	}
	if cfg.MinItemLength != 500 || cfg.MaxItemLength != 9000 {
		t.Fatalf("unexpected item bounds [%d, %d]", cfg.MinItemLength, cfg.MaxItemLength)
	}
	if cfg.SolveTimeout != 2*time.Second {
		t.Fatalf("expected solve timeout 2s, got %s", cfg.SolveTimeout)
	}
	if len(cfg.InitialVariants) != 1 || cfg.InitialVariants[0].Model.Name != "box-truck" {
		t.Fatalf("unexpected carriers: %+v", cfg.InitialVariants)
	}
	if !cfg.InitialVariants[0].PermutationFallback {
		t.Fatalf("expected permutation fallback enabled for box-truck")
	}
}

func TestLoadCLIOverridesWin(t *testing.T) {
	t.Setenv("PORT", "9000")

	port := "7070"
	width := 900
	timeout := 750 * time.Millisecond

	cfg, err := Load(&CLIOverrides{Port: &port, ColumnWidth: &width, SolveTimeout: &timeout})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "7070" {
		t.Fatalf("expected CLI port to win, got %s", cfg.Port)
	}
	if cfg.ColumnWidth != 900 {
		t.Fatalf("expected CLI column width to win, got %d", cfg.ColumnWidth)
	}
	if cfg.SolveTimeout != timeout {
		t.Fatalf("expected CLI solve timeout to win, got %s", cfg.SolveTimeout)
	}
}

func TestLoadRejectsInvalidBounds(t *testing.T) {
	t.Setenv("PORT", "")

	content := `
min_item_length: 5000
max_item_length: 1000
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := Load(&CLIOverrides{ConfigFile: path}); err == nil {
		t.Fatalf("expected error for inverted item bounds")
	}
}
