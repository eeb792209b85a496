package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cyberfeed/api"
	"cyberfeed/config"
	"cyberfeed/dates"
	"cyberfeed/feed"
	"cyberfeed/logging"
	"cyberfeed/pipeline"
	"cyberfeed/scheduler"
	"cyberfeed/store"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfgPath := "./config.yaml"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	slog.Info("config loaded", "feeds", len(cfg.Feeds), "interval_hours", cfg.ScrapeIntervalHours, "csv_path", cfg.CSVPath)

	// Initialize storage
	st, err := store.New(cfg.CSVPath, cfg.MaxRecords)
	if err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}
	slog.Info("store initialized", "csv_path", cfg.CSVPath, "max_records", cfg.MaxRecords)

	// Initialize scraping components
	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	fetcher := feed.NewFetcher(httpClient, cfg.MaxRetries, cfg.RequestTimeout(), cfg.RetryDelay())
	pipe := pipeline.New(cfg.Feeds, fetcher, dates.NewParser(), cfg.ScrapeDaysBack)

	// Initialize scheduler with an immediate first run
	sched := scheduler.New(pipe, st, cfg.ScrapeInterval())
	if err := sched.Start(true); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	slog.Info("scheduler started", "interval", cfg.ScrapeInterval())

	// HTTP API
	apiServer := api.New(st, sched, api.Config{
		AppName:       cfg.AppName,
		Version:       version,
		APIKeyEnabled: cfg.APIKeyEnabled,
		APIKey:        cfg.APIKey,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", cfg.Addr())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped with error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}

	sched.Stop()
	slog.Info("shutdown complete")
}
