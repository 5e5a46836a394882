package handler

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger проверка доступности зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обработчик health check запросов
type HealthHandler struct {
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler создаёт новый HealthHandler.
// db может быть nil, тогда проверяется только сам сервис.
func NewHealthHandler(db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// HealthResponse ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Check проверяет состояние сервиса
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondJSON(w, h.logger, http.StatusOK, HealthResponse{Status: "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Database health check failed", zap.Error(err))
		respondJSON(w, h.logger, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unavailable"})
		return
	}

	respondJSON(w, h.logger, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
