package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"recipe_backend/middleware"
	"recipe_backend/models"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

func Health(db Pinger, w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := models.HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}
	if err := db.Ping(ctx); err != nil {
		slog.Warn("health check failed", "type", "db", "error", err)
		resp.Status, resp.Reason = "unavailable", "database unreachable"
		middleware.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}
