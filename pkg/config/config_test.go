package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fitdex/fitdex/pkg/storage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyAlt, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != storage.DriverSQLite {
		t.Errorf("expected sqlite driver, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.SQLite.Path != filepath.Join("data", "fitdex.db") {
		t.Errorf("expected sqlite path under data dir, got %s", cfg.Storage.SQLite.Path)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyAlt, "")
	t.Setenv(EnvLogLevel, "")

	path := filepath.Join(t.TempDir(), "fitdex.yaml")
	writeFile(t, path, `
data_dir: /var/lib/fitdex
storage:
  driver: redis
  redis:
    addr: cache:6379
    prefix: "me:"
api:
  base_url: http://localhost:9000/v1
telemetry:
  logging:
    level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if cfg.Storage.Driver != storage.DriverRedis || cfg.Storage.Redis.Addr != "cache:6379" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.API.BaseURL != "http://localhost:9000/v1" {
		t.Errorf("unexpected base url %s", cfg.API.BaseURL)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Metrics.Namespace != "fitdex" {
		t.Errorf("expected defaults to survive partial file, got namespace %q", cfg.Telemetry.Metrics.Namespace)
	}
	if cfg.Path() != path {
		t.Errorf("expected path %s, got %s", path, cfg.Path())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyAlt, "alt-key")
	t.Setenv(EnvLogLevel, "WARN")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.APIKey != "alt-key" {
		t.Errorf("expected fallback api key, got %q", cfg.API.APIKey)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected warn level, got %q", cfg.Telemetry.Logging.Level)
	}

	t.Setenv(EnvAPIKey, "primary-key")
	cfg, _ = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if cfg.API.APIKey != "primary-key" {
		t.Errorf("expected primary api key to win, got %q", cfg.API.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown driver", "storage:\n  driver: etcd\n"},
		{"redis without addr", "storage:\n  driver: redis\n  redis:\n    addr: \"\"\n"},
		{"bad base url", "api:\n  base_url: not a url\n"},
		{"bad log level", "telemetry:\n  logging:\n    level: loud\n"},
		{"empty data dir", "data_dir: \"\"\n"},
		{"malformed yaml", "storage: [\n"},
	}

	t.Setenv(EnvLogLevel, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fitdex.yaml")
			writeFile(t, path, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSaveRoundTripOmitsAPIKey(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIKeyAlt, "")
	t.Setenv(EnvLogLevel, "")

	cfg := Default()
	cfg.DataDir = "/tmp/fitdex-data"
	cfg.API.APIKey = "secret"

	path := filepath.Join(t.TempDir(), "nested", "fitdex.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "secret") {
		t.Error("api key must not be written to disk")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.DataDir != "/tmp/fitdex-data" {
		t.Errorf("expected data dir to round-trip, got %s", loaded.DataDir)
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if ResolvePath("") != DefaultPath {
		t.Error("expected default path")
	}
	t.Setenv(EnvConfigPath, "/etc/fitdex.yaml")
	if ResolvePath("") != "/etc/fitdex.yaml" {
		t.Error("expected env path")
	}
	if ResolvePath("./mine.yaml") != "./mine.yaml" {
		t.Error("expected flag to win")
	}
}

func TestWatcherReloads(t *testing.T) {
	t.Setenv(EnvLogLevel, "")

	path := filepath.Join(t.TempDir(), "fitdex.yaml")
	writeFile(t, path, "telemetry:\n  logging:\n    level: info\n")

	w := NewWatcher(path, zerolog.New(nil).Level(zerolog.Disabled))
	w.SetReloadDelay(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	if err := w.Watch(ctx, func(cfg *Config) { reloaded <- cfg }); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	defer w.Stop()

	writeFile(t, path, "telemetry:\n  logging:\n    level: debug\n")

	select {
	case cfg := <-reloaded:
		if cfg.Telemetry.Logging.Level != "debug" {
			t.Errorf("expected debug level after reload, got %s", cfg.Telemetry.Logging.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
