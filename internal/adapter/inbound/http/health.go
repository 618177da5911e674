package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/Sentinel-Gate/awaymail/internal/service"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Stats   *service.Stats    `json:"stats,omitempty"`   // Decision counters
	Version string            `json:"version,omitempty"` // Optional version info
}

// Pinger is a directory that can verify its backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// InterceptorLister reports which interceptors are registered.
type InterceptorLister interface {
	Names() []string
}

// HealthChecker verifies component health.
type HealthChecker struct {
	stats        *service.StatsService
	directory    Pinger
	interceptors InterceptorLister
	version      string
}

// NewHealthChecker creates a HealthChecker with optional components.
// Pass nil for components that aren't available.
func NewHealthChecker(
	stats *service.StatsService,
	directory Pinger,
	interceptors InterceptorLister,
	version string,
) *HealthChecker {
	return &HealthChecker{
		stats:        stats,
		directory:    directory,
		interceptors: interceptors,
		version:      version,
	}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check(ctx context.Context) HealthResponse {
	checks := make(map[string]string)
	healthy := true

	if h.directory != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := h.directory.Ping(pingCtx)
		cancel()
		if err != nil {
			checks["directory"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["directory"] = "ok"
		}
	} else {
		checks["directory"] = "not configured"
	}

	// With no interceptor registered nothing is evaluated.
	if h.interceptors != nil {
		names := h.interceptors.Names()
		if len(names) == 0 {
			checks["interceptors"] = "none registered"
			healthy = false
		} else {
			checks["interceptors"] = fmt.Sprintf("ok: %d registered", len(names))
		}
	} else {
		checks["interceptors"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	resp := HealthResponse{
		Status:  "healthy",
		Checks:  checks,
		Version: h.version,
	}
	if !healthy {
		resp.Status = "unhealthy"
	}
	if h.stats != nil {
		stats := h.stats.GetStats()
		resp.Stats = &stats
	}
	return resp
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check(r.Context())

		status := http.StatusOK
		if health.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	})
}

// healthHandler is the fallback when no HealthChecker is configured.
func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
}
