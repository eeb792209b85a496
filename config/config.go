// Package config provides configuration for the aggregation service,
// loaded from an optional YAML file with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoFeeds           = errors.New("at least one feed URL is required")
	ErrInvalidPort       = errors.New("port must be between 1 and 65535")
	ErrInvalidMaxRecords = errors.New("max_records must be at least 1")
	ErrInvalidInterval   = errors.New("scrape_interval_hours must be at least 1")
	ErrInvalidTimeout    = errors.New("request_timeout_secs must be at least 1")
	ErrInvalidRetries    = errors.New("max_retries must be at least 1")
	ErrInvalidRetryDelay = errors.New("retry_delay_secs must be non-negative")
	ErrInvalidDaysBack   = errors.New("scrape_days_back must be at least 1")
	ErrMissingAPIKey     = errors.New("api_key is required when api_key_enabled is true")
	ErrInvalidLogLevel   = errors.New("log_level must be one of: debug, info, warn, error")
)

// Config holds all application configuration.
type Config struct {
	AppName             string   `yaml:"app_name"`
	Host                string   `yaml:"host"`
	Port                int      `yaml:"port"`
	CSVPath             string   `yaml:"csv_path"`
	MaxRecords          int      `yaml:"max_records"`
	ScrapeIntervalHours int      `yaml:"scrape_interval_hours"`
	ScrapeDaysBack      int      `yaml:"scrape_days_back"`
	RequestTimeoutSecs  int      `yaml:"request_timeout_secs"`
	MaxRetries          int      `yaml:"max_retries"`
	RetryDelaySecs      int      `yaml:"retry_delay_secs"`
	Feeds               []string `yaml:"feeds"`
	LogLevel            string   `yaml:"log_level"`
	LogFile             string   `yaml:"log_file"`
	APIKeyEnabled       bool     `yaml:"api_key_enabled"`
	APIKey              string   `yaml:"api_key"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		AppName:             "Cybersecurity News Aggregator",
		Host:                "0.0.0.0",
		Port:                8000,
		CSVPath:             "data/articles.csv",
		MaxRecords:          10000,
		ScrapeIntervalHours: 24,
		ScrapeDaysBack:      2,
		RequestTimeoutSecs:  30,
		MaxRetries:          3,
		RetryDelaySecs:      5,
		Feeds: []string{
			"https://nvd.nist.gov/feeds/xml/cve/misc/nvd-rss.xml",
			"https://www.bleepingcomputer.com/feed/",
			"https://www.securityweek.com/feed/",
			"https://thehackernews.com/feeds/posts/default",
			"https://www.cisa.gov/cybersecurity-advisories/all.xml",
			"https://krebsonsecurity.com/feed/",
		},
		LogLevel: "info",
		LogFile:  "logs/app.log",
	}
}

// Load reads the YAML file at path (missing file means defaults), applies
// a local .env file if present, then environment variable overrides, and
// validates the result. Environment variable CYBERFEED_CONFIG overrides
// the file path itself.
func Load(path string) (Config, error) {
	// A .env file, when present, populates the process environment the
	// same way deployment would.
	_ = godotenv.Load()

	if envPath := os.Getenv("CYBERFEED_CONFIG"); envPath != "" {
		path = envPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file: defaults plus env overrides.
	case err != nil:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from CYBERFEED_* environment variables.
func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setString("CYBERFEED_HOST", &c.Host)
	setInt("CYBERFEED_PORT", &c.Port)
	setString("CYBERFEED_CSV_PATH", &c.CSVPath)
	setInt("CYBERFEED_MAX_RECORDS", &c.MaxRecords)
	setInt("CYBERFEED_SCRAPE_INTERVAL_HOURS", &c.ScrapeIntervalHours)
	setInt("CYBERFEED_SCRAPE_DAYS_BACK", &c.ScrapeDaysBack)
	setInt("CYBERFEED_REQUEST_TIMEOUT_SECS", &c.RequestTimeoutSecs)
	setInt("CYBERFEED_MAX_RETRIES", &c.MaxRetries)
	setInt("CYBERFEED_RETRY_DELAY_SECS", &c.RetryDelaySecs)
	setString("CYBERFEED_LOG_LEVEL", &c.LogLevel)
	setString("CYBERFEED_LOG_FILE", &c.LogFile)
	setBool("CYBERFEED_API_KEY_ENABLED", &c.APIKeyEnabled)
	setString("CYBERFEED_API_KEY", &c.APIKey)

	if v := os.Getenv("CYBERFEED_FEEDS"); v != "" {
		var feeds []string
		for _, u := range strings.Split(v, ",") {
			if u = strings.TrimSpace(u); u != "" {
				feeds = append(feeds, u)
			}
		}
		c.Feeds = feeds
	}
}

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if len(c.Feeds) == 0 {
		return ErrNoFeeds
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.MaxRecords < 1 {
		return ErrInvalidMaxRecords
	}
	if c.ScrapeIntervalHours < 1 {
		return ErrInvalidInterval
	}
	if c.ScrapeDaysBack < 1 {
		return ErrInvalidDaysBack
	}
	if c.RequestTimeoutSecs < 1 {
		return ErrInvalidTimeout
	}
	if c.MaxRetries < 1 {
		return ErrInvalidRetries
	}
	if c.RetryDelaySecs < 0 {
		return ErrInvalidRetryDelay
	}
	if c.APIKeyEnabled && c.APIKey == "" {
		return ErrMissingAPIKey
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ScrapeInterval returns the scrape interval as a duration.
func (c *Config) ScrapeInterval() time.Duration {
	return time.Duration(c.ScrapeIntervalHours) * time.Hour
}

// RequestTimeout returns the per-attempt fetch timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// RetryDelay returns the delay between fetch attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySecs) * time.Second
}
