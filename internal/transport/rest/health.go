package rest

import (
	"encoding/json"
	"net/http"
	"time"
)

// upstreamChecker defines the minimal interface for upstream health checks.
// Only the credential is checked; probing the upstream would cost tokens.
type upstreamChecker interface {
	Name() string
	Configured() bool
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	upstream upstreamChecker
	version  string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(upstream upstreamChecker, version string) *HealthHandler {
	return &HealthHandler{upstream: upstream, version: version}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Live is the liveness probe. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness probe: 200 when the upstream credential is set,
// 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.upstream.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "down",
			Timestamp: time.Now(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health is the full health check with the upstream component and version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]CompStatus)
	overallStatus := "ok"

	if h.upstream.Configured() {
		components["upstream"] = CompStatus{Status: "ok", Provider: h.upstream.Name()}
	} else {
		components["upstream"] = CompStatus{
			Status:   "down",
			Provider: h.upstream.Name(),
			Detail:   "api key is not configured",
		}
		overallStatus = "down"
	}

	status := http.StatusOK
	if overallStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overallStatus,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
