package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports the health of a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles liveness and readiness endpoints
type HealthHandler struct {
	db     Pinger
	cache  Pinger // may be nil when the in-process cache is used
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, cache Pinger, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &HealthHandler{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// HealthResponse represents the health status response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /health - simple liveness check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz - returns 200 only if dependencies answer.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	ready := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "not configured"
		ready = false
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = "error: " + err.Error()
			ready = false
		} else {
			checks["cache"] = "ok"
		}
	} else {
		checks["cache"] = "in-process"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !ready {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, ReadinessResponse{Status: status, Checks: checks})

	h.logger.Debug("readiness check",
		slog.String("status", status),
		slog.String("database", checks["database"]),
	)
}
