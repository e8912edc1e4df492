package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/api/middleware"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/app/service"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
)

type AdminOperations interface {
	Authorize(token string) error
	Login(ctx context.Context, token string) error
	UpsertProblem(ctx context.Context, req service.ProblemRequest) error
	UpdateProblem(ctx context.Context, id string, req service.ProblemRequest) error
	DeleteProblem(ctx context.Context, id string) error
}

type AdminHandler struct {
	admin AdminOperations
}

func NewAdminHandler(admin AdminOperations) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// RegisterRoutes mounts login, which reports token validity itself, and the problem
// mutations, which sit behind the admin token check.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.login)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.AdminOnly(h.admin))
		protected.Post("/problems", h.upsertProblem)
		protected.Put("/problems/{problemID}", h.updateProblem)
		protected.Delete("/problems/{problemID}", h.deleteProblem)
	})
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.Login(r.Context(), r.Header.Get(middleware.AdminTokenHeader)); err != nil {
		common.RespondWithError(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success("Login successful"))
}

func (h *AdminHandler) upsertProblem(w http.ResponseWriter, r *http.Request) {
	var req service.ProblemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.admin.UpsertProblem(r.Context(), req); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success("Problem added successfully"))
}

func (h *AdminHandler) updateProblem(w http.ResponseWriter, r *http.Request) {
	var req service.ProblemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.admin.UpdateProblem(r.Context(), chi.URLParam(r, "problemID"), req); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success("Problem updated successfully"))
}

func (h *AdminHandler) deleteProblem(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteProblem(r.Context(), chi.URLParam(r, "problemID")); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success("Problem deleted successfully"))
}
