package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
name: "facility-observer"
host: "127.0.0.1"
port: 8080
log_level: "INFO"
storage:
  db_type: "sqlite"
  db_path: "data/observer.db"
`

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	if cfg.Query.DefaultLimit != 500 || cfg.Query.MaxLimit != 5000 {
		t.Errorf("Unexpected query limits: %+v", cfg.Query)
	}
	if len(cfg.Summary.AdditiveMetrics) != 2 {
		t.Errorf("Expected default additive metrics, got %v", cfg.Summary.AdditiveMetrics)
	}
	if cfg.Client.PollIntervalSeconds != 5 || cfg.Client.WindowSeconds != 3600 {
		t.Errorf("Unexpected client defaults: %+v", cfg.Client)
	}
	if cfg.Client.FetchLimit != cfg.Query.DefaultLimit {
		t.Errorf("Fetch limit must default to the query limit, got %d", cfg.Client.FetchLimit)
	}
	if cfg.Client.DisplayBudget != 300 {
		t.Errorf("Expected default display budget 300, got %d", cfg.Client.DisplayBudget)
	}
}

func TestNewConfigExplicitValuesKept(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalConfig+`
query:
  default_limit: 100
  max_limit: 200
summary:
  additive_metrics: ["energy_kwh"]
client:
  poll_interval_seconds: 2
  window_seconds: 600
  display_budget: 50
`))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	if cfg.Query.DefaultLimit != 100 || cfg.Query.MaxLimit != 200 {
		t.Errorf("Explicit query limits overwritten: %+v", cfg.Query)
	}
	if len(cfg.Summary.AdditiveMetrics) != 1 || cfg.Summary.AdditiveMetrics[0] != "energy_kwh" {
		t.Errorf("Explicit additive metrics overwritten: %v", cfg.Summary.AdditiveMetrics)
	}
	if cfg.Client.WindowSeconds != 600 || cfg.Client.DisplayBudget != 50 {
		t.Errorf("Explicit client settings overwritten: %+v", cfg.Client)
	}
}

func TestNewConfigValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"missing name",
			strings.Replace(minimalConfig, `name: "facility-observer"`, "", 1),
			"name cannot be empty",
		},
		{
			"privileged port",
			strings.Replace(minimalConfig, "port: 8080", "port: 80", 1),
			"invalid server port",
		},
		{
			"sqlite without path",
			strings.Replace(minimalConfig, `db_path: "data/observer.db"`, "", 1),
			"database path cannot be empty",
		},
		{
			"postgres without connection string",
			strings.Replace(minimalConfig, `db_type: "sqlite"`, `db_type: "postgres"`, 1),
			"connection string cannot be empty",
		},
		{
			"max limit below default",
			minimalConfig + "query:\n  default_limit: 500\n  max_limit: 10\n",
			"cannot be below default limit",
		},
		{
			"display budget too small",
			minimalConfig + "client:\n  display_budget: 1\n",
			"display budget",
		},
	}

	for _, tc := range cases {
		_, err := NewConfig(writeConfig(t, tc.content))
		if err == nil {
			t.Errorf("%s: expected validation error", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantErr) {
			t.Errorf("%s: expected error containing %q, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestNewConfigMissingFile(t *testing.T) {
	if _, err := NewConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "saved.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewConfig(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded.Name != cfg.Name || reloaded.Port != cfg.Port {
		t.Errorf("Round trip changed the config: %+v vs %+v", reloaded.MConfig, cfg.MConfig)
	}
}
