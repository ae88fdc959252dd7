package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type upstreamMock struct {
	name       string
	configured bool
}

func (m *upstreamMock) Name() string     { return m.name }
func (m *upstreamMock) Configured() bool { return m.configured }

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestLive_Always200(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&upstreamMock{name: "deepseek"}, "test-version")

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	rec := httptest.NewRecorder()

	h.Live(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	resp := decodeHealth(t, rec)
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", resp.Status)
	}
	if resp.Timestamp.IsZero() {
		t.Error("expected non-zero timestamp")
	}
}

func TestReady_Configured(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&upstreamMock{name: "deepseek", configured: true}, "test-version")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	h.Ready(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if resp := decodeHealth(t, rec); resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", resp.Status)
	}
}

func TestReady_NotConfigured(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&upstreamMock{name: "deepseek"}, "test-version")

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	h.Ready(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
	if resp := decodeHealth(t, rec); resp.Status != "down" {
		t.Errorf("expected status 'down', got %q", resp.Status)
	}
}

func TestHealth_AllOK(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&upstreamMock{name: "anthropic", configured: true}, "v1.0.0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	resp := decodeHealth(t, rec)
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got %q", resp.Status)
	}
	if resp.Version != "v1.0.0" {
		t.Errorf("expected version 'v1.0.0', got %q", resp.Version)
	}

	comp, ok := resp.Components["upstream"]
	if !ok {
		t.Fatal("expected 'upstream' component in response")
	}
	if comp.Status != "ok" {
		t.Errorf("expected upstream status 'ok', got %q", comp.Status)
	}
	if comp.Provider != "anthropic" {
		t.Errorf("expected provider 'anthropic', got %q", comp.Provider)
	}
}

func TestHealth_NotConfigured(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler(&upstreamMock{name: "deepseek"}, "v1.0.0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}

	resp := decodeHealth(t, rec)
	if resp.Status != "down" {
		t.Errorf("expected status 'down', got %q", resp.Status)
	}

	comp, ok := resp.Components["upstream"]
	if !ok {
		t.Fatal("expected 'upstream' component in response")
	}
	if comp.Status != "down" || comp.Detail == "" {
		t.Errorf("expected upstream down with detail, got %+v", comp)
	}
}
