package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Pinger is what the health check needs from the database — nothing more.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetaHandler serves the unauthenticated service endpoints: the API info
// blurb at / and the health check at /health.
type MetaHandler struct {
	db     Pinger
	logger *slog.Logger
}

// NewMetaHandler creates a MetaHandler.
func NewMetaHandler(db Pinger, logger *slog.Logger) *MetaHandler {
	return &MetaHandler{db: db, logger: logger}
}

// HandleRoot returns basic API information.
//
// HTTP: GET /
func (h *MetaHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"name":    "taskboard",
		"version": "1.0.0",
		"message": "Task tracking API — see /auth and /tasks",
	})
}

// HandleHealth verifies the API and its database are alive.
//
// HTTP: GET /health
// 200 {"status":"healthy","database":"connected"} or 500 when the DB ping
// fails — which is what a load balancer or uptime probe wants to know.
func (h *MetaHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}
