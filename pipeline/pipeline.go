// Package pipeline orchestrates one full ingestion run: fetch every
// configured feed concurrently, normalize and classify the entries, and
// keep only recently published articles.
package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"cyberfeed/article"
	"cyberfeed/dates"
	"cyberfeed/feed"
)

// maxEntriesPerFeed caps how many entries are taken from a single feed,
// protecting against unbounded feed sizes.
const maxEntriesPerFeed = 50

// Pipeline builds article records from the configured feeds.
type Pipeline struct {
	feedURLs []string
	fetcher  feed.Fetcher
	dates    dates.Parser
	daysBack int
	now      func() time.Time
}

// New creates a Pipeline. daysBack is the recency window in calendar days,
// anchored at midnight UTC of the run day: 2 keeps today and yesterday.
func New(feedURLs []string, fetcher feed.Fetcher, parser dates.Parser, daysBack int) *Pipeline {
	if daysBack < 1 {
		daysBack = 1
	}
	return &Pipeline{
		feedURLs: feedURLs,
		fetcher:  fetcher,
		dates:    parser,
		daysBack: daysBack,
		now:      time.Now,
	}
}

// NewWithClock creates a Pipeline with an injected clock. Used by tests.
func NewWithClock(feedURLs []string, fetcher feed.Fetcher, parser dates.Parser, daysBack int, now func() time.Time) *Pipeline {
	p := New(feedURLs, fetcher, parser, daysBack)
	p.now = now
	return p
}

// Run fetches all feeds concurrently and returns the accepted articles
// together with run statistics. A failing feed never blocks or aborts the
// others; it is counted as failed and excluded from the results.
func (p *Pipeline) Run(ctx context.Context) ([]article.Article, article.ScrapeStats) {
	start := p.now().UTC()
	cutoff := start.Truncate(24 * time.Hour).AddDate(0, 0, -(p.daysBack - 1))

	slog.Info("starting feed scrape", "feeds", len(p.feedURLs), "cutoff", cutoff)

	results := make([]*gofeed.Feed, len(p.feedURLs))
	var wg sync.WaitGroup
	for i, feedURL := range p.feedURLs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parsed, err := p.fetcher.Fetch(ctx, feedURL)
			if err != nil {
				slog.Error("feed failed", "url", feedURL, "error", err)
				return
			}
			results[i] = parsed
		}()
	}
	wg.Wait()

	var accepted []article.Article
	successful := 0
	failed := 0
	for i, parsed := range results {
		if parsed == nil {
			failed++
			continue
		}
		successful++

		source := sourceName(parsed, p.feedURLs[i])
		entries := parsed.Items
		if len(entries) > maxEntriesPerFeed {
			entries = entries[:maxEntriesPerFeed]
		}

		kept := 0
		for _, entry := range entries {
			a := p.buildArticle(entry, source, start)
			if a == nil {
				continue
			}
			// Recency window applies to this run's output only; older
			// records already in the store are unaffected.
			if a.Published.Before(cutoff) {
				continue
			}
			accepted = append(accepted, *a)
			kept++
		}
		slog.Info("processed feed", "source", source, "entries", len(entries), "kept", kept)
	}

	duration := p.now().UTC().Sub(start)
	stats := article.ScrapeStats{
		TotalFeeds:      len(p.feedURLs),
		SuccessfulFeeds: successful,
		FailedFeeds:     failed,
		NewArticles:     len(accepted),
		ScrapedAt:       start,
		DurationSeconds: duration.Seconds(),
	}

	slog.Info("scrape finished",
		"successful_feeds", successful,
		"failed_feeds", failed,
		"articles", len(accepted),
		"duration", duration)

	return accepted, stats
}

// buildArticle converts one feed entry into an Article. Entries without a
// link are dropped with a warning.
func (p *Pipeline) buildArticle(entry *gofeed.Item, source string, scrapedAt time.Time) *article.Article {
	title := article.Sanitize(entry.Title, article.MaxTitleLength)
	if title == "" {
		title = "No Title"
	}

	if entry.Link == "" {
		slog.Warn("entry missing link, dropped", "source", source, "title", title)
		return nil
	}

	rawDate := entry.Published
	if rawDate == "" {
		rawDate = entry.Updated
	}
	published := p.dates.Parse(rawDate)

	description := entry.Description
	if description == "" {
		description = entry.Content
	}
	description = article.Sanitize(description, article.MaxDescriptionLength)

	return &article.Article{
		ID:          article.NewID(title, entry.Link),
		Title:       title,
		Link:        entry.Link,
		Published:   published,
		Source:      source,
		Description: description,
		ScrapedAt:   scrapedAt,
		Category:    article.Classify(title, description),
	}
}

// sourceName prefers the feed's own title, falling back to the URL host.
func sourceName(parsed *gofeed.Feed, feedURL string) string {
	if parsed.Title != "" {
		return parsed.Title
	}
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return u.Host
	}
	return feedURL
}
