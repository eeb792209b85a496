// Package api exposes the article store and scheduler over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cyberfeed/article"
	"cyberfeed/scheduler"
	"cyberfeed/store"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// ArticleStore is the subset of store operations the API reads from.
type ArticleStore interface {
	Query(opts store.QueryOptions) ([]article.Article, int, error)
	GetByID(id string) (*article.Article, error)
	Stats() (store.Stats, error)
}

// ScrapeController exposes scheduler state and manual triggering.
type ScrapeController interface {
	TriggerScrape(ctx context.Context) article.ScrapeStats
	Status() scheduler.Status
}

// Config holds the API server settings.
type Config struct {
	AppName       string
	Version       string
	APIKeyEnabled bool
	APIKey        string
}

// Server handles HTTP requests for articles, stats, and admin operations.
type Server struct {
	store     ArticleStore
	scraper   ScrapeController
	cfg       Config
	startedAt time.Time
}

// New creates a Server.
func New(st ArticleStore, scraper ScrapeController, cfg Config) *Server {
	return &Server{
		store:     st,
		scraper:   scraper,
		cfg:       cfg,
		startedAt: time.Now().UTC(),
	}
}

// Handler builds the route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/articles", s.handleArticles)
	mux.HandleFunc("GET /api/v1/articles/{id}", s.handleArticleByID)
	mux.HandleFunc("GET /api/v1/sources", s.handleSources)
	mux.HandleFunc("GET /api/v1/categories", s.handleCategories)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("POST /api/v1/scrape", s.handleScrape)

	var h http.Handler = mux
	h = s.requireAPIKey(h)
	h = cors(h)
	h = logRequests(h)
	return h
}

// articlesResponse is the paginated article listing envelope.
type articlesResponse struct {
	Total    int               `json:"total"`
	Count    int               `json:"count"`
	Articles []article.Article `json:"articles"`
}

// healthResponse reports liveness.
type healthResponse struct {
	Status        string     `json:"status"`
	Version       string     `json:"version"`
	UptimeSeconds float64    `json:"uptime_seconds"`
	LastScrape    *time.Time `json:"last_scrape"`
	TotalArticles int        `json:"total_articles"`
}

// statsResponse combines store stats with scheduler state.
type statsResponse struct {
	Database      store.Stats      `json:"database"`
	Scheduler     scheduler.Status `json:"scheduler"`
	UptimeSeconds float64          `json:"uptime_seconds"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":         s.cfg.AppName,
		"version":      s.cfg.Version,
		"health_check": "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "healthy",
		Version:       s.cfg.Version,
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		LastScrape:    s.scraper.Status().LastScrape,
	}
	if st, err := s.store.Stats(); err == nil {
		resp.TotalArticles = st.TotalArticles
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	opts, err := parseQueryOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	articles, total, err := s.store.Query(opts)
	if err != nil {
		slog.Error("querying articles", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve articles")
		return
	}
	if articles == nil {
		articles = []article.Article{}
	}

	writeJSON(w, http.StatusOK, articlesResponse{
		Total:    total,
		Count:    len(articles),
		Articles: articles,
	})
}

func (s *Server) handleArticleByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	a, err := s.store.GetByID(id)
	if err != nil {
		slog.Error("getting article", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve article")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("article %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats()
	if err != nil {
		slog.Error("getting store stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve sources")
		return
	}
	if st.Sources == nil {
		st.Sources = []string{}
	}
	writeJSON(w, http.StatusOK, st.Sources)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := article.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	dbStats, err := s.store.Stats()
	if err != nil {
		slog.Error("getting store stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve statistics")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Database:      dbStats,
		Scheduler:     s.scraper.Status(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	slog.Info("manual scrape triggered via API")
	stats := s.scraper.TriggerScrape(r.Context())
	writeJSON(w, http.StatusOK, stats)
}

// parseQueryOptions validates and converts the listing query parameters.
func parseQueryOptions(r *http.Request) (store.QueryOptions, error) {
	q := r.URL.Query()
	opts := store.QueryOptions{Limit: defaultLimit}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return opts, fmt.Errorf("limit must be an integer between 1 and %d", maxLimit)
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("offset must be a non-negative integer")
		}
		opts.Offset = n
	}

	opts.Source = q.Get("source")
	opts.Search = q.Get("search")

	if v := q.Get("category"); v != "" {
		cat, ok := article.ParseCategory(v)
		if !ok {
			return opts, fmt.Errorf("unknown category %q", v)
		}
		opts.Category = cat
	}

	if v := q.Get("start_date"); v != "" {
		t, err := parseDateParam(v, false)
		if err != nil {
			return opts, fmt.Errorf("invalid start_date: use YYYY-MM-DD or RFC 3339")
		}
		opts.Start = t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseDateParam(v, true)
		if err != nil {
			return opts, fmt.Errorf("invalid end_date: use YYYY-MM-DD or RFC 3339")
		}
		opts.End = t
	}

	return opts, nil
}

// parseDateParam accepts RFC 3339, zone-free date-times (taken as UTC),
// and bare dates. Bare dates widen to start-of-day, or end-of-day when
// endOfDay is set.
func parseDateParam(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return t.Add(24*time.Hour - time.Second).UTC(), nil
	}
	return t.UTC(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// errorResponse is the structured error body for all failure classes.
type errorResponse struct {
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{
		Detail:    detail,
		Timestamp: time.Now().UTC(),
	})
}
