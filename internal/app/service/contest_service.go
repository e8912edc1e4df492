package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/repository"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/logger"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/metrics"
)

// ContestService drives the shared contest timer. Transitions between statuses are
// applied lazily by LastUpdate; Status only reads.
type ContestService struct {
	contestRepo repository.ContestRepository
	db          *sql.DB
	metrics     *metrics.Metrics
	now         func() time.Time
}

type ContestOption func(*ContestService)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) ContestOption {
	return func(s *ContestService) {
		s.now = now
	}
}

func NewContestService(contestRepo repository.ContestRepository, db *sql.DB, m *metrics.Metrics, opts ...ContestOption) *ContestService {
	s := &ContestService{
		contestRepo: contestRepo,
		db:          db,
		metrics:     m,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StatusView is the read-only snapshot served to participants.
type StatusView struct {
	Status               model.ContestStatus `json:"status"`
	RemainingTime        int64               `json:"remaining_time"`
	IsVisible            bool                `json:"is_visible"`
	TotalDurationMinutes *int                `json:"total_duration_minutes,omitempty"`
	Message              string              `json:"message,omitempty"`
}

// LastUpdateView tells polling clients when the contest row last changed.
type LastUpdateView struct {
	LastUpdate    int64               `json:"last_update"`
	Status        string              `json:"status"`
	ContestStatus model.ContestStatus `json:"contest_status,omitempty"`
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

func (s *ContestService) clock() time.Time {
	return s.now().UTC()
}

// Schedule starts a countdown of countdownMinutes followed by a contest of durationMinutes.
func (s *ContestService) Schedule(ctx context.Context, countdownMinutes, durationMinutes int) (*model.ContestState, error) {
	if countdownMinutes < 0 || durationMinutes < 0 {
		return nil, fmt.Errorf("%w: countdown and duration must not be negative", common.ErrBadRequest)
	}
	now := s.clock()
	start := now.Add(minutes(countdownMinutes))
	end := start.Add(minutes(durationMinutes))
	state := &model.ContestState{
		ID:                   model.ContestStateID,
		Status:               model.ContestPending,
		StartTime:            &start,
		EndTime:              &end,
		TotalDurationMinutes: durationMinutes,
		IsVisible:            false,
		UpdatedAt:            now,
	}
	if err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.contestRepo.Save(ctx, tx, state)
	}); err != nil {
		return nil, err
	}
	logger.Info(ctx, "contest scheduled", zap.Time("start_time", start), zap.Time("end_time", end))
	return state, nil
}

// Start begins a contest immediately, skipping the countdown.
func (s *ContestService) Start(ctx context.Context, durationMinutes int) (*model.ContestState, error) {
	if durationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", common.ErrBadRequest)
	}
	now := s.clock()
	end := now.Add(minutes(durationMinutes))
	state := &model.ContestState{
		ID:                   model.ContestStateID,
		Status:               model.ContestRunning,
		StartTime:            &now,
		EndTime:              &end,
		TotalDurationMinutes: durationMinutes,
		IsVisible:            false,
		UpdatedAt:            now,
	}
	if err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.contestRepo.Save(ctx, tx, state)
	}); err != nil {
		return nil, err
	}
	logger.Info(ctx, "contest started", zap.Int("duration_minutes", durationMinutes))
	return state, nil
}

// AddTime pushes the end back by n minutes in any status, provided an end time exists.
func (s *ContestService) AddTime(ctx context.Context, n int) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		state, err := s.contestRepo.Get(ctx, tx)
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: no active contest", common.ErrInvalidState)
		}
		if err != nil {
			return err
		}
		if state.EndTime == nil {
			return fmt.Errorf("%w: no active contest", common.ErrInvalidState)
		}
		return s.contestRepo.ExtendEnd(ctx, tx, state.EndTime.Add(minutes(n)), state.TotalDurationMinutes+n, s.clock())
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "contest time added", zap.Int("minutes", n))
	return nil
}

// AddPrecountdownTime delays the start of a pending contest by n minutes. The end
// time is left where it is.
func (s *ContestService) AddPrecountdownTime(ctx context.Context, n int) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		state, err := s.contestRepo.Get(ctx, tx)
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("%w: no contest scheduled", common.ErrInvalidState)
		}
		if err != nil {
			return err
		}
		if state.Status != model.ContestPending {
			return fmt.Errorf("%w: can only add time during pre-countdown phase", common.ErrInvalidState)
		}
		if state.StartTime == nil {
			return fmt.Errorf("%w: no start time set", common.ErrInvalidState)
		}
		return s.contestRepo.MoveStart(ctx, tx, state.StartTime.Add(minutes(n)), s.clock())
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "pre-countdown time added", zap.Int("minutes", n))
	return nil
}

func (s *ContestService) Stop(ctx context.Context) error {
	if err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.contestRepo.MarkStopped(ctx, tx, s.clock())
	}); err != nil {
		return err
	}
	logger.Info(ctx, "contest stopped")
	return nil
}

func (s *ContestService) SetVisibility(ctx context.Context, visible bool) error {
	if err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.contestRepo.SetVisibility(ctx, tx, visible, s.clock())
	}); err != nil {
		return err
	}
	logger.Info(ctx, "contest visibility changed", zap.Bool("is_visible", visible))
	return nil
}

func (s *ContestService) Reset(ctx context.Context) error {
	state := &model.ContestState{
		ID:        model.ContestStateID,
		Status:    model.ContestPending,
		UpdatedAt: s.clock(),
	}
	if err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.contestRepo.Save(ctx, tx, state)
	}); err != nil {
		return err
	}
	logger.Info(ctx, "contest reset")
	return nil
}

// Status computes remaining time without writing anything.
func (s *ContestService) Status(ctx context.Context) (*StatusView, error) {
	state, err := s.contestRepo.Get(ctx, nil)
	if errors.Is(err, common.ErrNotFound) {
		return &StatusView{
			Status:  model.ContestPending,
			Message: "No active contest",
		}, nil
	}
	if err != nil {
		return nil, err
	}
	total := state.TotalDurationMinutes
	return &StatusView{
		Status:               state.Status,
		RemainingTime:        state.RemainingSeconds(s.clock()),
		IsVisible:            state.IsVisible,
		TotalDurationMinutes: &total,
	}, nil
}

// LastUpdate applies at most one due transition and reports when the row last changed.
func (s *ContestService) LastUpdate(ctx context.Context) (*LastUpdateView, error) {
	var view *LastUpdateView
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		state, err := s.contestRepo.Get(ctx, tx)
		if errors.Is(err, common.ErrNotFound) {
			view = &LastUpdateView{LastUpdate: 0, Status: string(model.ContestNone)}
			return nil
		}
		if err != nil {
			return err
		}

		now := s.clock()
		updatedAt := state.UpdatedAt
		next, changed := state.NextStatus(now)
		if changed {
			updatedAt, err = s.contestRepo.UpdateStatus(ctx, tx, next, now)
			if err != nil {
				return err
			}
		}
		view = &LastUpdateView{LastUpdate: updatedAt.Unix(), Status: "ok", ContestStatus: next}
		if changed {
			s.metrics.ObserveTransition(string(state.Status), string(next))
			logger.Info(ctx, "contest transitioned", zap.String("from", string(state.Status)), zap.String("to", string(next)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
