// Package scheduler drives the ingestion pipeline on a fixed interval and
// on demand, guaranteeing that at most one run is active at a time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"cyberfeed/article"
)

// Runner executes one full ingestion run.
type Runner interface {
	Run(ctx context.Context) ([]article.Article, article.ScrapeStats)
}

// Storage is the subset of store operations the scheduler needs.
type Storage interface {
	Add(articles []article.Article) (int, error)
	Count() (int, error)
}

// Scheduler owns the periodic timer and the single-flight guard around
// runs. Later-due ticks that land while a run is in flight are skipped,
// not queued; a manual trigger waits its turn instead of overlapping.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	storage  Storage
	interval time.Duration

	// runMu serializes the run body across timer ticks and manual triggers.
	runMu sync.Mutex

	mu        sync.Mutex
	running   bool
	entryID   cron.EntryID
	lastRun   time.Time
	lastStats *article.ScrapeStats
}

// New creates a Scheduler that invokes runner every interval and persists
// the results through storage.
func New(runner Runner, storage Storage, interval time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		runner:   runner,
		storage:  storage,
		interval: interval,
	}
}

// Start registers the interval job and begins ticking. When runImmediately
// is true, one run executes synchronously before the first tick.
func (s *Scheduler) Start(runImmediately bool) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.tick)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("adding scrape job: %w", err)
	}
	s.entryID = entryID
	s.running = true
	s.mu.Unlock()

	s.cron.Start()
	slog.Info("scheduler started", "interval", s.interval.String())

	if runImmediately {
		slog.Info("running initial scrape")
		s.TriggerScrape(context.Background())
	}
	return nil
}

// Stop halts the timer and waits for any in-flight run to finish. It never
// aborts a run already in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()

	// A manual trigger may still hold the run lock; wait it out.
	s.runMu.Lock()
	s.runMu.Unlock()

	slog.Info("scheduler stopped")
}

// TriggerScrape executes a run synchronously and returns its stats. If a
// run is already in flight the trigger waits for it to finish before
// starting; two runs never overlap.
func (s *Scheduler) TriggerScrape(ctx context.Context) article.ScrapeStats {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx)
}

// tick handles one timer firing. A tick that lands while a run is still in
// flight is skipped.
func (s *Scheduler) tick() {
	if !s.runMu.TryLock() {
		slog.Warn("scrape already in progress, skipping scheduled run")
		return
	}
	defer s.runMu.Unlock()
	s.run(context.Background())
}

// run executes one pipeline run plus store insert. Callers must hold runMu.
func (s *Scheduler) run(ctx context.Context) article.ScrapeStats {
	slog.Info("starting scrape run")
	articles, stats := s.runner.Run(ctx)

	added, err := s.storage.Add(articles)
	if err != nil {
		slog.Error("storing scraped articles", "error", err)
	} else {
		stats.NewArticles = added
	}
	if total, err := s.storage.Count(); err == nil {
		stats.TotalArticles = total
	}

	s.mu.Lock()
	s.lastRun = stats.ScrapedAt
	s.lastStats = &stats
	s.mu.Unlock()

	slog.Info("scrape run completed",
		"new_articles", stats.NewArticles,
		"total_articles", stats.TotalArticles,
		"failed_feeds", stats.FailedFeeds)
	return stats
}

// Status is a snapshot of scheduler state for the stats endpoint.
type Status struct {
	IsRunning     bool                 `json:"is_running"`
	LastScrape    *time.Time           `json:"last_scrape"`
	NextScrape    *time.Time           `json:"next_scrape"`
	IntervalHours float64              `json:"interval_hours"`
	LastStats     *article.ScrapeStats `json:"last_stats"`
}

// Status reports whether the scheduler is running, the last and next run
// times, and the most recent run's stats.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		IsRunning:     s.running,
		IntervalHours: s.interval.Hours(),
		LastStats:     s.lastStats,
	}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		st.LastScrape = &t
	}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			t := next
			st.NextScrape = &t
		}
	}
	return st
}
