package handlers

import (
	"context"
	"net/http"
	"time"

	"todolis-backend/pkg/config"
	"todolis-backend/pkg/database"
	"todolis-backend/pkg/utils"
)

type HealthHandler struct {
	config *config.Config
	db     database.DatabaseInterface
}

func NewHealthHandler(cfg *config.Config, db database.DatabaseInterface) *HealthHandler {
	return &HealthHandler{config: cfg, db: db}
}

// GET /
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		utils.WriteErrorResponseWithCode(w, http.StatusServiceUnavailable, "UNHEALTHY", "database unavailable", err.Error())
		return
	}
	utils.WriteSuccessResponse(w, map[string]interface{}{
		"status":      "ok",
		"service":     "todolis-backend",
		"environment": h.config.Environment,
		"time":        utils.NowTimestamp(),
	})
}
