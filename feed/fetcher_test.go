package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test Security Feed</title>
<link>https://example.com</link>
<item>
<title>First item</title>
<link>https://example.com/1</link>
<pubDate>Mon, 15 Jan 2024 10:30:00 +0000</pubDate>
<description>First description</description>
</item>
<item>
<title>Second item</title>
<link>https://example.com/2</link>
<pubDate>Mon, 15 Jan 2024 09:00:00 +0000</pubDate>
<description>Second description</description>
</item>
</channel>
</rss>`

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), 3, 5*time.Second, 10*time.Millisecond)
	parsed, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if parsed.Title != "Test Security Feed" {
		t.Errorf("feed title = %q, want %q", parsed.Title, "Test Security Feed")
	}
	if len(parsed.Items) != 2 {
		t.Errorf("items = %d, want 2", len(parsed.Items))
	}
}

func TestFetch_RetriesOnServerError(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), 3, 5*time.Second, 10*time.Millisecond)
	parsed, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch after retries: %v", err)
	}
	if parsed == nil || len(parsed.Items) != 2 {
		t.Fatal("expected parsed feed after retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestFetch_ExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), 3, 5*time.Second, time.Millisecond)
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestFetch_MalformedBodyNotRetried(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), 3, 5*time.Second, time.Millisecond)
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (parse failures must not be retried)", got)
	}
}

func TestFetch_PerAttemptTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	f := NewFetcher(server.Client(), 2, 20*time.Millisecond, time.Millisecond)
	start := time.Now()
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("fetch took %v, expected bounded attempts", elapsed)
	}
}

func TestFetch_ContextCancelledDuringDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	f := NewFetcher(server.Client(), 3, 5*time.Second, 10*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(ctx, server.URL)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after cancellation")
		}
		if !strings.Contains(err.Error(), "context canceled") {
			t.Errorf("error = %v, want context cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not return after context cancellation")
	}
}
