package handler

import (
	"context"
	"net/http"
	"time"

	"terminfinder/pkg/logger"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db    Pinger
	redis Pinger
	log   *logger.Logger
}

func NewHealthHandler(db, redis Pinger, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
		log:   log,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Checks    map[string]string `json:"checks"`
}

// Check handles GET /health. Redis is optional; a missing or failing cache
// degrades the status but the service stays up.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   "terminfinder",
		Checks:    make(map[string]string),
	}
	status := http.StatusOK

	if err := h.db.Health(ctx); err != nil {
		h.log.WithError(err).Error("Database health check failed")
		response.Status = "unhealthy"
		response.Checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	} else {
		response.Checks["database"] = "ok"
	}

	if h.redis == nil {
		response.Checks["redis"] = "disabled"
	} else if err := h.redis.Health(ctx); err != nil {
		h.log.WithError(err).Warn("Redis health check failed")
		if response.Status == "healthy" {
			response.Status = "degraded"
		}
		response.Checks["redis"] = err.Error()
	} else {
		response.Checks["redis"] = "ok"
	}

	respondJSON(w, status, response)
}
