package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/app/service"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
)

type HealthChecker interface {
	Check(ctx context.Context) (*service.HealthReport, error)
	TestConnection(ctx context.Context) (int, error)
}

type HealthHandler struct {
	health HealthChecker
}

func NewHealthHandler(health HealthChecker) *HealthHandler {
	return &HealthHandler{health: health}
}

func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/info", h.info)
	r.Get("/health", h.check)
	r.Get("/test-connection", h.testConnection)
}

type apiInfo struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func (h *HealthHandler) info(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, apiInfo{
		Message: "Coders Cup Problems API",
		Version: "1.0",
		Endpoints: map[string]string{
			"GET /api/problems":            "Get all problems",
			"GET /api/problems/{id}":       "Get specific problem with samples",
			"GET /api/health":              "Health check",
			"GET /api/test-connection":     "Test database connection",
			"GET /api/contest/status":      "Contest status and remaining time",
			"GET /api/contest/last-update": "Contest change timestamp",
		},
	})
}

func (h *HealthHandler) check(w http.ResponseWriter, r *http.Request) {
	report, err := h.health.Check(r.Context())
	if err != nil {
		common.RespondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	common.RespondWithJSON(w, http.StatusOK, report)
}

func (h *HealthHandler) testConnection(w http.ResponseWriter, r *http.Request) {
	count, err := h.health.TestConnection(r.Context())
	if err != nil {
		common.RespondWithJSON(w, http.StatusInternalServerError, common.MessageResponse{
			Status:  "error",
			Message: "Connection failed: " + err.Error(),
		})
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "success",
		"message":       fmt.Sprintf("Connected to database. Found %d problems.", count),
		"cache_enabled": true,
	})
}
