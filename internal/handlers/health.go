package handlers

import (
	"context"
	"net/http"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/utils/helpers"

	"go.uber.org/zap"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health godoc
// @Summary Проверка живости сервиса и базы
// @Tags health
// @Produce json
// @Success 200 {object} helpers.Response
// @Failure 503 {object} errorResponse
// @Router /healthz [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		logger.WithCtx(r.Context()).Error("Healthcheck: база недоступна", zap.Error(err))
		helpers.Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	helpers.Success(w, http.StatusOK, map[string]string{"db": "ok"})
}
