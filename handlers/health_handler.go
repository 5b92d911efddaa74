package handlers

import (
	"context"
	"net/http"
	"time"

	"places-server/middleware"
	"places-server/services"
	"places-server/utils/errors"
	"places-server/utils/logger"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	index services.GeoIndex
	log   logger.Logger
}

func NewHealthHandler(index services.GeoIndex, log logger.Logger) *HealthHandler {
	return &HealthHandler{index: index, log: log}
}

// Health handles GET /healthz by pinging the geo store.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := h.index.Ping(ctx); err != nil {
		h.log.Warn(r.Context(), "health check failed", logger.Error(err))
		middleware.WriteError(r.Context(), w, nil, errors.ErrStoreUnavailable)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
