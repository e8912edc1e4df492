package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
)

type ProblemReader interface {
	ListProblems(ctx context.Context) ([]model.ProblemSummary, error)
	GetProblem(ctx context.Context, id string) (*model.Problem, error)
}

type ProblemHandler struct {
	problems ProblemReader
}

func NewProblemHandler(problems ProblemReader) *ProblemHandler {
	return &ProblemHandler{problems: problems}
}

func (h *ProblemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProblems)          // GET /api/problems
	r.Get("/{problemID}", h.getProblem) // GET /api/problems/A1
}

func (h *ProblemHandler) listProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.problems.ListProblems(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problems)
}

func (h *ProblemHandler) getProblem(w http.ResponseWriter, r *http.Request) {
	problem, err := h.problems.GetProblem(r.Context(), chi.URLParam(r, "problemID"))
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, problem)
}
