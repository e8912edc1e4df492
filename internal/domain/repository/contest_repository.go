package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
)

// ContestRepository owns the singleton contest_state row. Every write is an upsert on
// the fixed id so the row is created on first use. Timestamps come from the caller's clock.
type ContestRepository interface {
	// Get returns ErrNotFound when no contest has been configured. Inside a transaction
	// the row is locked until commit.
	Get(ctx context.Context, tx *sql.Tx) (*model.ContestState, error)
	Save(ctx context.Context, tx *sql.Tx, state *model.ContestState) error
	SetVisibility(ctx context.Context, tx *sql.Tx, visible bool, at time.Time) error
	MarkStopped(ctx context.Context, tx *sql.Tx, at time.Time) error
	UpdateStatus(ctx context.Context, tx *sql.Tx, status model.ContestStatus, at time.Time) (time.Time, error)
	ExtendEnd(ctx context.Context, tx *sql.Tx, end time.Time, totalMinutes int, at time.Time) error
	MoveStart(ctx context.Context, tx *sql.Tx, start time.Time, at time.Time) error
}

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) Get(ctx context.Context, tx *sql.Tx) (*model.ContestState, error) {
	query := `SELECT id, status, start_time, end_time, total_duration_minutes, is_visible, updated_at
	          FROM contest_state WHERE id = $1`
	if tx != nil {
		query += ` FOR UPDATE`
	}

	state := &model.ContestState{}
	var start, end sql.NullTime
	err := pick(r.db, tx).QueryRowContext(ctx, query, model.ContestStateID).Scan(
		&state.ID, &state.Status, &start, &end, &state.TotalDurationMinutes, &state.IsVisible, &state.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contest state: %w", common.ErrNotFound)
		}
		return nil, common.DependencyError("pgContestRepository.Get", err)
	}
	if start.Valid {
		state.StartTime = &start.Time
	}
	if end.Valid {
		state.EndTime = &end.Time
	}
	return state, nil
}

// Save overwrites every column of the singleton row.
func (r *pgContestRepository) Save(ctx context.Context, tx *sql.Tx, s *model.ContestState) error {
	query := `INSERT INTO contest_state (id, status, start_time, end_time, total_duration_minutes, is_visible, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          ON CONFLICT (id) DO UPDATE SET
	              status = EXCLUDED.status, start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time,
	              total_duration_minutes = EXCLUDED.total_duration_minutes, is_visible = EXCLUDED.is_visible,
	              updated_at = EXCLUDED.updated_at`

	_, err := pick(r.db, tx).ExecContext(ctx, query,
		model.ContestStateID, string(s.Status), nullTime(s.StartTime), nullTime(s.EndTime),
		s.TotalDurationMinutes, s.IsVisible, s.UpdatedAt)
	if err != nil {
		return common.DependencyError("pgContestRepository.Save", err)
	}
	return nil
}

func (r *pgContestRepository) SetVisibility(ctx context.Context, tx *sql.Tx, visible bool, at time.Time) error {
	query := `INSERT INTO contest_state (id, status, total_duration_minutes, is_visible, updated_at)
	          VALUES ($1, $2, 0, $3, $4)
	          ON CONFLICT (id) DO UPDATE SET is_visible = EXCLUDED.is_visible, updated_at = EXCLUDED.updated_at`

	if _, err := pick(r.db, tx).ExecContext(ctx, query, model.ContestStateID, string(model.ContestPending), visible, at); err != nil {
		return common.DependencyError("pgContestRepository.SetVisibility", err)
	}
	return nil
}

func (r *pgContestRepository) MarkStopped(ctx context.Context, tx *sql.Tx, at time.Time) error {
	query := `INSERT INTO contest_state (id, status, end_time, total_duration_minutes, is_visible, updated_at)
	          VALUES ($1, $2, $3, 0, FALSE, $3)
	          ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, end_time = EXCLUDED.end_time, updated_at = EXCLUDED.updated_at`

	if _, err := pick(r.db, tx).ExecContext(ctx, query, model.ContestStateID, string(model.ContestEnded), at); err != nil {
		return common.DependencyError("pgContestRepository.MarkStopped", err)
	}
	return nil
}

// UpdateStatus persists an automatic transition and returns the stored updated_at.
func (r *pgContestRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, status model.ContestStatus, at time.Time) (time.Time, error) {
	query := `UPDATE contest_state SET status = $1, updated_at = $2 WHERE id = $3 RETURNING updated_at`

	var updatedAt time.Time
	err := pick(r.db, tx).QueryRowContext(ctx, query, string(status), at, model.ContestStateID).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("contest state: %w", common.ErrNotFound)
		}
		return time.Time{}, common.DependencyError("pgContestRepository.UpdateStatus", err)
	}
	return updatedAt, nil
}

func (r *pgContestRepository) ExtendEnd(ctx context.Context, tx *sql.Tx, end time.Time, totalMinutes int, at time.Time) error {
	query := `UPDATE contest_state SET end_time = $1, total_duration_minutes = $2, updated_at = $3 WHERE id = $4`

	if _, err := pick(r.db, tx).ExecContext(ctx, query, end, totalMinutes, at, model.ContestStateID); err != nil {
		return common.DependencyError("pgContestRepository.ExtendEnd", err)
	}
	return nil
}

func (r *pgContestRepository) MoveStart(ctx context.Context, tx *sql.Tx, start time.Time, at time.Time) error {
	query := `UPDATE contest_state SET start_time = $1, updated_at = $2 WHERE id = $3`

	if _, err := pick(r.db, tx).ExecContext(ctx, query, start, at, model.ContestStateID); err != nil {
		return common.DependencyError("pgContestRepository.MoveStart", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
