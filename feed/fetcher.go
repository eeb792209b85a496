// Package feed retrieves and parses individual RSS/Atom feeds.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const userAgent = "cyberfeed/1.0"

// Fetcher retrieves and parses a single feed URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*gofeed.Feed, error)
}

type httpFetcher struct {
	client     *http.Client
	parser     *gofeed.Parser
	maxRetries int
	timeout    time.Duration
	retryDelay time.Duration
}

// NewFetcher creates a Fetcher that attempts each URL up to maxRetries
// times, with an independent timeout per attempt and a fixed delay between
// attempts. The HTTP client is shared across fetches.
func NewFetcher(client *http.Client, maxRetries int, timeout, retryDelay time.Duration) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &httpFetcher{
		client:     client,
		parser:     gofeed.NewParser(),
		maxRetries: maxRetries,
		timeout:    timeout,
		retryDelay: retryDelay,
	}
}

// Fetch retrieves and parses the feed at url. Timeouts, transport errors,
// and non-2xx statuses are retried up to the budget. A 2xx response whose
// body fails to parse is a terminal error: retrying will not improve a
// malformed document.
func (f *httpFetcher) Fetch(ctx context.Context, url string) (*gofeed.Feed, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		parsed, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return parsed, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
		slog.Warn("feed fetch attempt failed", "url", url, "attempt", attempt, "error", err)

		if attempt < f.maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("fetching %s: all %d attempts failed: %w", url, f.maxRetries, lastErr)
}

// fetchOnce performs a single attempt. The second return value reports
// whether the failure is worth retrying.
func (f *httpFetcher) fetchOnce(ctx context.Context, url string) (*gofeed.Feed, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, true, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading %s: %w", url, err)
	}

	parsed, err := f.parser.ParseString(string(body))
	if err != nil {
		return nil, false, fmt.Errorf("parsing feed %s: %w", url, err)
	}
	return parsed, false, nil
}
