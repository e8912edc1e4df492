package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/app/service"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
)

type ContestOperations interface {
	Schedule(ctx context.Context, countdownMinutes, durationMinutes int) (*model.ContestState, error)
	Start(ctx context.Context, durationMinutes int) (*model.ContestState, error)
	AddTime(ctx context.Context, minutes int) error
	AddPrecountdownTime(ctx context.Context, minutes int) error
	Stop(ctx context.Context) error
	SetVisibility(ctx context.Context, visible bool) error
	Reset(ctx context.Context) error
	Status(ctx context.Context) (*service.StatusView, error)
	LastUpdate(ctx context.Context) (*service.LastUpdateView, error)
}

const (
	defaultCountdownMinutes = 5
	defaultScheduleMinutes  = 120
)

type ContestHandler struct {
	contest ContestOperations
}

func NewContestHandler(contest ContestOperations) *ContestHandler {
	return &ContestHandler{contest: contest}
}

// RegisterRoutes mounts the participant polling endpoints.
func (h *ContestHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.status)
	r.Get("/last-update", h.lastUpdate)
}

// RegisterAdminRoutes mounts timer control. The caller guards it with the admin check.
func (h *ContestHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/schedule", h.schedule)
	r.Post("/start", h.start)
	r.Post("/add-time", h.addTime)
	r.Post("/add-precountdown-time", h.addPrecountdownTime)
	r.Post("/stop", h.stop)
	r.Post("/visibility", h.visibility)
	r.Post("/reset", h.reset)
}

type scheduleRequest struct {
	CountdownMinutes *int `json:"countdown_minutes"`
	DurationMinutes  *int `json:"duration_minutes"`
}

type startRequest struct {
	DurationMinutes int `json:"duration_minutes"`
}

type minutesRequest struct {
	Minutes int `json:"minutes"`
}

type visibilityRequest struct {
	IsVisible bool `json:"is_visible"`
}

type scheduleResponse struct {
	common.MessageResponse
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func (h *ContestHandler) status(w http.ResponseWriter, r *http.Request) {
	view, err := h.contest.Status(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ContestHandler) lastUpdate(w http.ResponseWriter, r *http.Request) {
	view, err := h.contest.LastUpdate(r.Context())
	if err != nil {
		common.RespondWithJSON(w, common.HTTPStatusFromError(err), map[string]interface{}{
			"error":       err.Error(),
			"last_update": 0,
		})
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *ContestHandler) schedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	countdown := intOr(req.CountdownMinutes, defaultCountdownMinutes)
	duration := intOr(req.DurationMinutes, defaultScheduleMinutes)

	state, err := h.contest.Schedule(r.Context(), countdown, duration)
	if err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, scheduleResponse{
		MessageResponse: common.Success(fmt.Sprintf("Contest scheduled. Countdown in %d minutes, then %d minute contest", countdown, duration)),
		StartTime:       state.StartTime.Format(time.RFC3339),
		EndTime:         state.EndTime.Format(time.RFC3339),
	})
}

func (h *ContestHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if _, err := h.contest.Start(r.Context(), req.DurationMinutes); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success(fmt.Sprintf("Contest started for %d minutes", req.DurationMinutes)))
}

func (h *ContestHandler) addTime(w http.ResponseWriter, r *http.Request) {
	var req minutesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.contest.AddTime(r.Context(), req.Minutes); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success(fmt.Sprintf("Added %d minutes to contest", req.Minutes)))
}

func (h *ContestHandler) addPrecountdownTime(w http.ResponseWriter, r *http.Request) {
	var req minutesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.contest.AddPrecountdownTime(r.Context(), req.Minutes); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success(fmt.Sprintf("Added %d minutes to pre-countdown", req.Minutes)))
}

func (h *ContestHandler) stop(w http.ResponseWriter, r *http.Request) {
	if err := h.contest.Stop(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success("Contest stopped"))
}

func (h *ContestHandler) visibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.contest.SetVisibility(r.Context(), req.IsVisible); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success(fmt.Sprintf("Contest visibility set to %t", req.IsVisible)))
}

func (h *ContestHandler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.contest.Reset(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.Success("Contest reset to pending state"))
}
