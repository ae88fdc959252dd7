//go:build e2e

package e2e_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/sentence-lab/internal/app"
	"github.com/heartmarshall/sentence-lab/internal/config"
	"github.com/heartmarshall/sentence-lab/internal/domain"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer starts the application handler in front of the given
// fake upstream. mutate may adjust the config before wiring.
func setupTestServer(t *testing.T, upstream http.Handler, mutate func(*config.Config)) *testServer {
	t.Helper()

	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, ShutdownTimeout: time.Second},
		Upstream: config.UpstreamConfig{
			Provider:    config.ProviderDeepSeek,
			BaseURL:     up.URL,
			ChatPath:    "/chat/completions",
			APIKey:      "sk-e2e",
			Timeout:     10 * time.Second,
			IdleTimeout: 5 * time.Second,
			MaxTokens:   256,
		},
		Stream:    config.StreamConfig{MaxSentenceLength: 200},
		RateLimit: config.RateLimitConfig{TranslatePerMinute: 100, CleanupInterval: time.Minute},
		Log:       config.LogConfig{Level: "debug", Format: "text"},
		CORS: config.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,OPTIONS",
			AllowedHeaders: "Content-Type,X-Request-Id",
		},
	}
	if mutate != nil {
		mutate(cfg)
	}

	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler, cleanup, err := app.NewHandler(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{URL: srv.URL, Client: srv.Client()}
}

// ---------------------------------------------------------------------------
// Fake upstream helpers.
// ---------------------------------------------------------------------------

// writeDelta sends one chat-completions chunk and flushes it.
func writeDelta(w http.ResponseWriter, content string) {
	payload, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"delta": map[string]any{"content": content}}},
	})
	fmt.Fprintf(w, "data: %s\n\n", payload)
	w.(http.Flusher).Flush()
}

// chatStream answers with the given deltas followed by [DONE].
func chatStream(pieces ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, p := range pieces {
			writeDelta(w, p)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

// ---------------------------------------------------------------------------
// Event-stream client helpers.
// ---------------------------------------------------------------------------

// eventReader reads "data:" frames one at a time from a live response.
type eventReader struct {
	sc *bufio.Scanner
}

func newEventReader(resp *http.Response) *eventReader {
	return &eventReader{sc: bufio.NewScanner(resp.Body)}
}

// next returns the next record, or false at end of stream.
func (r *eventReader) next(t *testing.T) (domain.Record, bool) {
	t.Helper()
	for r.sc.Scan() {
		line := r.sc.Text()
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var rec domain.Record
		require.NoError(t, json.Unmarshal([]byte(payload), &rec))
		return rec, true
	}
	return domain.Record{}, false
}

// all drains the stream.
func (r *eventReader) all(t *testing.T) []domain.Record {
	t.Helper()
	var out []domain.Record
	for {
		rec, ok := r.next(t)
		if !ok {
			return out
		}
		out = append(out, rec)
	}
}

func (ts *testServer) postStream(t *testing.T, sentence string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"sentence": sentence})
	resp, err := ts.Client.Post(ts.URL+"/api/process/stream", "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
