package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
)

type ProblemRepository interface {
	ListSummaries(ctx context.Context) ([]model.ProblemSummary, error)
	FindWithSamples(ctx context.Context, id string) (*model.Problem, error)
	Count(ctx context.Context) (int, error)

	Upsert(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	Update(ctx context.Context, tx *sql.Tx, problem *model.Problem) (int64, error)
	Delete(ctx context.Context, tx *sql.Tx, id string) (int64, error)

	AddSamplesToProblem(ctx context.Context, tx *sql.Tx, problemID string, samples []model.Sample) error
	DeleteSamplesByProblemID(ctx context.Context, tx *sql.Tx, problemID string) error
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) ListSummaries(ctx context.Context) ([]model.ProblemSummary, error) {
	query := `SELECT id, title, origin, time_limit, memory_limit FROM problems ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.DependencyError("pgProblemRepository.ListSummaries", err)
	}
	defer rows.Close()

	problems := []model.ProblemSummary{}
	for rows.Next() {
		var p model.ProblemSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Origin, &p.TimeLimit, &p.MemoryLimit); err != nil {
			return nil, common.DependencyError("pgProblemRepository.ListSummaries scan", err)
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.DependencyError("pgProblemRepository.ListSummaries rows", err)
	}
	return problems, nil
}

// FindWithSamples loads a problem and its samples in one round trip. Samples are
// aggregated in insertion order; a problem without samples gets an empty array.
func (r *pgProblemRepository) FindWithSamples(ctx context.Context, id string) (*model.Problem, error) {
	query := `
        SELECT p.id, p.title, p.origin, p.time_limit, p.memory_limit,
               p.statement, p.input, p.output, p.constraints, p.note, p.vj_link,
               COALESCE(json_agg(json_build_object('input', s.input, 'output', s.output) ORDER BY s.id)
                        FILTER (WHERE s.id IS NOT NULL), '[]'::json) AS samples_json
        FROM problems p
        LEFT JOIN samples s ON p.id = s.problem_id
        WHERE p.id = $1
        GROUP BY p.id`

	problem := &model.Problem{}
	var samplesJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&problem.ID, &problem.Title, &problem.Origin, &problem.TimeLimit, &problem.MemoryLimit,
		&problem.Statement, &problem.Input, &problem.Output, &problem.Constraints, &problem.Note, &problem.VJLink,
		&samplesJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("problem %s: %w", id, common.ErrNotFound)
		}
		return nil, common.DependencyError("pgProblemRepository.FindWithSamples", err)
	}

	problem.Samples = []model.Sample{}
	if len(samplesJSON) > 0 {
		if err := json.Unmarshal(samplesJSON, &problem.Samples); err != nil {
			return nil, common.DependencyError("pgProblemRepository.FindWithSamples samples", err)
		}
	}
	if problem.Samples == nil {
		problem.Samples = []model.Sample{}
	}
	return problem, nil
}

func (r *pgProblemRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`).Scan(&count); err != nil {
		return 0, common.DependencyError("pgProblemRepository.Count", err)
	}
	return count, nil
}

// Upsert writes every mutable column; an existing row is overwritten, not merged.
func (r *pgProblemRepository) Upsert(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, title, origin, time_limit, memory_limit, statement, input, output, constraints, note, vj_link)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          ON CONFLICT (id) DO UPDATE SET
	              title = EXCLUDED.title, origin = EXCLUDED.origin,
	              time_limit = EXCLUDED.time_limit, memory_limit = EXCLUDED.memory_limit,
	              statement = EXCLUDED.statement, input = EXCLUDED.input, output = EXCLUDED.output,
	              constraints = EXCLUDED.constraints, note = EXCLUDED.note, vj_link = EXCLUDED.vj_link`

	_, err := pick(r.db, tx).ExecContext(ctx, query,
		p.ID, p.Title, p.Origin, p.TimeLimit, p.MemoryLimit,
		p.Statement, p.Input, p.Output, p.Constraints, p.Note, p.VJLink)
	if err != nil {
		return common.DependencyError("pgProblemRepository.Upsert", err)
	}
	return nil
}

// Update never creates a row. It returns the number of rows touched.
func (r *pgProblemRepository) Update(ctx context.Context, tx *sql.Tx, p *model.Problem) (int64, error) {
	query := `UPDATE problems SET
                title = $1, origin = $2, time_limit = $3, memory_limit = $4,
                statement = $5, input = $6, output = $7, constraints = $8,
                note = $9, vj_link = $10
              WHERE id = $11`

	res, err := pick(r.db, tx).ExecContext(ctx, query,
		p.Title, p.Origin, p.TimeLimit, p.MemoryLimit,
		p.Statement, p.Input, p.Output, p.Constraints, p.Note, p.VJLink, p.ID)
	if err != nil {
		return 0, common.DependencyError("pgProblemRepository.Update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.DependencyError("pgProblemRepository.Update rows", err)
	}
	return n, nil
}

func (r *pgProblemRepository) Delete(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	res, err := pick(r.db, tx).ExecContext(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return 0, common.DependencyError("pgProblemRepository.Delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.DependencyError("pgProblemRepository.Delete rows", err)
	}
	return n, nil
}

func (r *pgProblemRepository) AddSamplesToProblem(ctx context.Context, tx *sql.Tx, problemID string, samples []model.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	stmt, err := pick(r.db, tx).PrepareContext(ctx, `INSERT INTO samples (problem_id, input, output) VALUES ($1, $2, $3)`)
	if err != nil {
		return common.DependencyError("pgProblemRepository.AddSamplesToProblem prepare", err)
	}
	defer stmt.Close()

	for i, s := range samples {
		if _, err := stmt.ExecContext(ctx, problemID, s.Input, s.Output); err != nil {
			return common.DependencyError(fmt.Sprintf("pgProblemRepository.AddSamplesToProblem sample %d", i), err)
		}
	}
	return nil
}

func (r *pgProblemRepository) DeleteSamplesByProblemID(ctx context.Context, tx *sql.Tx, problemID string) error {
	if _, err := pick(r.db, tx).ExecContext(ctx, `DELETE FROM samples WHERE problem_id = $1`, problemID); err != nil {
		return common.DependencyError("pgProblemRepository.DeleteSamplesByProblemID", err)
	}
	return nil
}
