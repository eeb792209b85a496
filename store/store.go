// Package store persists articles to a single flat CSV file, keyed by
// article ID. All operations serialize through one in-process lock; the
// whole collection is rewritten on every mutation.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"cyberfeed/article"
)

// csvHeader defines the on-disk column order.
var csvHeader = []string{"id", "title", "link", "published", "source", "description", "scraped_at", "category"}

// Store is a CSV-backed article collection. The zero value is not usable;
// construct with New. One mutex serializes every operation over its full
// read-modify-write cycle.
type Store struct {
	mu         sync.Mutex
	path       string
	maxRecords int
}

// New opens (or creates) the CSV file at path and returns a Store that
// retains at most maxRecords articles, evicting the oldest-published
// first. maxRecords <= 0 disables trimming.
func New(path string, maxRecords int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data directory: %w", err)
		}
	}

	s := &Store{path: path, maxRecords: maxRecords}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.save(nil); err != nil {
			return nil, err
		}
		slog.Info("created article store", "path", path)
	} else if err != nil {
		return nil, fmt.Errorf("store: stat %s: %w", path, err)
	}

	return s, nil
}

// Add inserts the given batch, skipping any article whose ID is already
// present. The collection is re-sorted by published date descending,
// trimmed to the configured maximum, and rewritten. Returns the number of
// articles actually added.
func (s *Store) Add(articles []article.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a.ID] = struct{}{}
	}

	added := 0
	for _, a := range articles {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		existing = append(existing, a)
		added++
	}

	if added == 0 {
		slog.Info("no new articles to add, all duplicates")
		return 0, nil
	}

	sort.SliceStable(existing, func(i, j int) bool {
		return existing[i].Published.After(existing[j].Published)
	})

	if s.maxRecords > 0 && len(existing) > s.maxRecords {
		existing = existing[:s.maxRecords]
		slog.Info("trimmed store to capacity", "max_records", s.maxRecords)
	}

	if err := s.save(existing); err != nil {
		return 0, err
	}

	slog.Info("added articles to store", "added", added, "total", len(existing))
	return added, nil
}

// QueryOptions filter and paginate a Query. Zero values mean "no filter";
// filters compose conjunctively. Offset applies before Limit.
type QueryOptions struct {
	Limit    int
	Offset   int
	Source   string
	Category article.Category
	Start    time.Time
	End      time.Time
	Search   string
}

// Query returns the matching page of articles plus the total match count
// before pagination. Results keep the store's natural order: published
// date descending.
func (s *Store) Query(opts QueryOptions) ([]article.Article, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, 0, err
	}

	var matched []article.Article
	search := strings.ToLower(opts.Search)
	for _, a := range all {
		if opts.Source != "" && !strings.EqualFold(a.Source, opts.Source) {
			continue
		}
		if opts.Category != "" && a.Category != opts.Category {
			continue
		}
		if !opts.Start.IsZero() && a.Published.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && a.Published.After(opts.End) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.Title), search) &&
			!strings.Contains(strings.ToLower(a.Description), search) {
			continue
		}
		matched = append(matched, a)
	}

	total := len(matched)

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	return matched, total, nil
}

// GetByID returns the article with the given ID, or nil if absent.
func (s *Store) GetByID(id string) (*article.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			a := all[i]
			return &a, nil
		}
	}
	return nil, nil
}

// Count returns the total number of stored articles.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// Stats describes the stored collection.
type Stats struct {
	TotalArticles int            `json:"total_articles"`
	Sources       []string       `json:"sources"`
	Categories    map[string]int `json:"categories"`
	OldestArticle *time.Time     `json:"oldest_article"`
	NewestArticle *time.Time     `json:"newest_article"`
}

// Stats returns aggregate information about the collection. An empty
// store yields zero values, not an error.
func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		TotalArticles: len(all),
		Categories:    make(map[string]int),
	}

	seenSources := make(map[string]struct{})
	for _, a := range all {
		if _, ok := seenSources[a.Source]; !ok {
			seenSources[a.Source] = struct{}{}
			st.Sources = append(st.Sources, a.Source)
		}
		st.Categories[string(a.Category)]++

		if st.OldestArticle == nil || a.Published.Before(*st.OldestArticle) {
			t := a.Published
			st.OldestArticle = &t
		}
		if st.NewestArticle == nil || a.Published.After(*st.NewestArticle) {
			t := a.Published
			st.NewestArticle = &t
		}
	}

	return st, nil
}

// Clear empties the collection and persists the header-only file
// immediately.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(nil); err != nil {
		return err
	}
	slog.Warn("article store cleared")
	return nil
}

// load reads the whole collection from disk. Rows with unparsable dates or
// the wrong field count are dropped with a warning; I/O and CSV framing
// errors are hard failures. Callers must hold mu.
func (s *Store) load() ([]article.Article, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read header: %w", err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("store: unexpected header with %d columns in %s", len(header), s.path)
	}

	var articles []article.Article
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: read row: %w", err)
		}
		if len(row) != len(csvHeader) {
			slog.Warn("skipping malformed row", "columns", len(row))
			continue
		}

		published, err := time.Parse(time.RFC3339, row[3])
		if err != nil {
			slog.Warn("skipping row with unparsable published date", "id", row[0], "raw", row[3])
			continue
		}
		scrapedAt, err := time.Parse(time.RFC3339, row[6])
		if err != nil {
			slog.Warn("skipping row with unparsable scraped_at date", "id", row[0], "raw", row[6])
			continue
		}

		category, ok := article.ParseCategory(row[7])
		if !ok {
			category = article.CategoryOther
		}

		articles = append(articles, article.Article{
			ID:          row[0],
			Title:       row[1],
			Link:        row[2],
			Published:   published.UTC(),
			Source:      row[4],
			Description: row[5],
			ScrapedAt:   scrapedAt.UTC(),
			Category:    category,
		})
	}

	return articles, nil
}

// save rewrites the whole collection. Writing goes to a temp file in the
// same directory followed by a rename, so a crash mid-write never leaves a
// partially written store. Callers must hold mu.
func (s *Store) save(articles []article.Article) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".articles-*.csv")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(csvHeader)
	for _, a := range articles {
		if writeErr != nil {
			break
		}
		writeErr = w.Write([]string{
			a.ID,
			a.Title,
			a.Link,
			a.Published.UTC().Format(time.RFC3339),
			a.Source,
			a.Description,
			a.ScrapedAt.UTC().Format(time.RFC3339),
			string(a.Category),
		})
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", s.path, writeErr)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}
	return nil
}
