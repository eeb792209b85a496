// Package dates normalizes the date strings found in RSS feeds, which
// arrive in dozens of textual formats, with or without a timezone offset.
package dates

import (
	"log/slog"
	"time"

	"github.com/araddon/dateparse"
)

// Parser converts a raw date string to a UTC instant. Implementations
// never fail: unusable input falls back to the current time.
type Parser interface {
	Parse(raw string) time.Time
}

type parser struct {
	now func() time.Time
}

// NewParser returns the production Parser backed by free-form parsing.
func NewParser() Parser {
	return &parser{now: time.Now}
}

// NewParserWithClock returns a Parser whose fallback instant comes from
// the given clock. Used by tests.
func NewParserWithClock(now func() time.Time) Parser {
	return &parser{now: now}
}

// Parse interprets raw as a point in time and returns it in UTC. Inputs
// carrying an offset are converted; offset-free inputs are taken as
// already UTC. Empty or unparsable input yields the current UTC time with
// a logged warning, never an error.
func (p *parser) Parse(raw string) time.Time {
	if raw == "" {
		slog.Warn("empty date string, using current time")
		return p.now().UTC()
	}

	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		slog.Warn("unparsable date, using current time", "raw", raw, "error", err)
		return p.now().UTC()
	}

	return t.UTC()
}
