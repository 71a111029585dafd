package handlers

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is any dependency that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	checks   map[string]Pinger
	critical map[string]bool
	version  string
	started  time.Time
	timeout  time.Duration
}

// NewHealthHandlers creates a new health handlers instance. The store is
// critical for readiness; optional dependencies may be nil when disabled.
func NewHealthHandlers(store Pinger, cache Pinger, archive Pinger, version string) *HealthHandlers {
	h := &HealthHandlers{
		checks:   map[string]Pinger{"database": store},
		critical: map[string]bool{"database": true},
		version:  version,
		started:  time.Now(),
		timeout:  2 * time.Second,
	}
	if cache != nil {
		h.checks["cache"] = cache
		h.critical["cache"] = true
	}
	if archive != nil {
		h.checks["storage"] = archive
	}
	return h
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Services   map[string]string `json:"services"`
	Uptime     string            `json:"uptime"`
	Version    string            `json:"version"`
	Goroutines int               `json:"goroutines"`
}

func (h *HealthHandlers) run(ctx context.Context) (map[string]error, []string) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	results := make(map[string]error, len(h.checks))
	for name, p := range h.checks {
		names = append(names, name)
		results[name] = p.Ping(ctx)
	}
	sort.Strings(names)
	return results, names
}

// HealthCheck reports every dependency; degraded still answers 200
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	results, names := h.run(c.Request().Context())

	health := &HealthStatus{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Services:   make(map[string]string, len(names)),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Version:    h.version,
		Goroutines: runtime.NumGoroutine(),
	}
	for _, name := range names {
		if results[name] != nil {
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
			continue
		}
		health.Services[name] = "healthy"
	}
	return c.JSON(http.StatusOK, health)
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	results, names := h.run(c.Request().Context())

	for _, name := range names {
		if results[name] != nil && h.critical[name] {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status":  "not_ready",
				"message": "Critical services unavailable: " + name,
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}
