package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want default 8000", cfg.Port)
	}
	if cfg.ScrapeIntervalHours != 24 {
		t.Errorf("ScrapeIntervalHours = %d, want 24", cfg.ScrapeIntervalHours)
	}
	if len(cfg.Feeds) != 6 {
		t.Errorf("default feeds = %d, want 6", len(cfg.Feeds))
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
port: 9000
max_records: 500
feeds:
  - https://feeds.example.com/a
log_level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if cfg.MaxRecords != 500 {
		t.Errorf("MaxRecords = %d, want 500", cfg.MaxRecords)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0] != "https://feeds.example.com/a" {
		t.Errorf("Feeds = %v", cfg.Feeds)
	}
	// Untouched fields keep their defaults.
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.MaxRetries)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CYBERFEED_PORT", "7777")
	t.Setenv("CYBERFEED_FEEDS", "https://a.example.com/rss, https://b.example.com/rss")
	t.Setenv("CYBERFEED_API_KEY_ENABLED", "true")
	t.Setenv("CYBERFEED_API_KEY", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7777 {
		t.Errorf("Port = %d, want 7777", cfg.Port)
	}
	if len(cfg.Feeds) != 2 || cfg.Feeds[1] != "https://b.example.com/rss" {
		t.Errorf("Feeds = %v", cfg.Feeds)
	}
	if !cfg.APIKeyEnabled || cfg.APIKey != "secret" {
		t.Errorf("API key settings not applied: %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "feeds: [unterminated")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no feeds", func(c *Config) { c.Feeds = nil }, ErrNoFeeds},
		{"bad port", func(c *Config) { c.Port = 0 }, ErrInvalidPort},
		{"bad port high", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"bad max records", func(c *Config) { c.MaxRecords = 0 }, ErrInvalidMaxRecords},
		{"bad interval", func(c *Config) { c.ScrapeIntervalHours = 0 }, ErrInvalidInterval},
		{"bad days back", func(c *Config) { c.ScrapeDaysBack = 0 }, ErrInvalidDaysBack},
		{"bad timeout", func(c *Config) { c.RequestTimeoutSecs = 0 }, ErrInvalidTimeout},
		{"bad retries", func(c *Config) { c.MaxRetries = 0 }, ErrInvalidRetries},
		{"negative retry delay", func(c *Config) { c.RetryDelaySecs = -1 }, ErrInvalidRetryDelay},
		{"api key enabled without key", func(c *Config) { c.APIKeyEnabled = true }, ErrMissingAPIKey},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		cfg := Defaults()
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate(defaults) = %v", err)
		}
	})
}

func TestDurationHelpers(t *testing.T) {
	cfg := Defaults()
	if cfg.ScrapeInterval() != 24*time.Hour {
		t.Errorf("ScrapeInterval = %v, want 24h", cfg.ScrapeInterval())
	}
	if cfg.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout())
	}
	if cfg.RetryDelay() != 5*time.Second {
		t.Errorf("RetryDelay = %v, want 5s", cfg.RetryDelay())
	}
}

func TestAddr(t *testing.T) {
	cfg := Defaults()
	cfg.Host = "127.0.0.1"
	cfg.Port = 8080
	if got := cfg.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr = %q, want 127.0.0.1:8080", got)
	}
}
