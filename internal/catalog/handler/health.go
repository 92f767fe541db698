package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"autolibrarian/internal/auth/middleware"
	"autolibrarian/pkg/config"
	apperrors "autolibrarian/pkg/errors"
	httputil "autolibrarian/pkg/http"
)

type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router, guard *middleware.Guard) {
	router.GET("/", guard.Handle(middleware.CapabilityNone, h.Welcome))
	router.GET("/health", guard.Handle(middleware.CapabilityNone, h.Health))
	router.GET("/ready", guard.Handle(middleware.CapabilityNone, h.Ready))
}

func (h *HealthHandler) Welcome(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, map[string]string{"message": "Auto Librarian is running"}); err != nil {
		h.cfg.Log.Error("failed to write response", "handler", "Welcome", "error", err)
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, map[string]string{"status": "ok"}); err != nil {
		h.cfg.Log.Error("failed to write response", "handler", "Health", "error", err)
	}
}

// Ready checks the database connection so orchestrators can hold traffic
// until the store is actually reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.cfg.Client.Mongo.Ping(ctx, readpref.Primary()); err != nil {
		h.cfg.Log.Error("Readiness check failed", "error", err)
		if writeErr := httputil.WriteError(w, apperrors.Unavailable("database")); writeErr != nil {
			h.cfg.Log.Error("failed to write error response", "handler", "Ready", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]string{"status": "ready"}); err != nil {
		h.cfg.Log.Error("failed to write response", "handler", "Ready", "error", err)
	}
}
