package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/repository"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/cache"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/logger"
)

// AdminService guards the shared admin secret and performs problem mutations.
// Every successful mutation clears the whole problem cache.
type AdminService struct {
	problemRepo repository.ProblemRepository
	cache       cache.Cache
	db          *sql.DB
	secret      string
}

func NewAdminService(problemRepo repository.ProblemRepository, c cache.Cache, db *sql.DB, secret string) *AdminService {
	return &AdminService{
		problemRepo: problemRepo,
		cache:       c,
		db:          db,
		secret:      secret,
	}
}

type SampleRequest struct {
	Input  *string `json:"input"`
	Output *string `json:"output"`
}

// ProblemRequest is the admin payload for creating or replacing a problem.
type ProblemRequest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Origin      *string         `json:"origin"`
	TimeLimit   model.Limit     `json:"timeLimit"`
	MemoryLimit model.Limit     `json:"memoryLimit"`
	Statement   *string         `json:"statement"`
	Input       *string         `json:"input"`
	Output      *string         `json:"output"`
	Constraints *string         `json:"constraints"`
	Note        *string         `json:"note"`
	VJLink      string          `json:"vjLink"`
	Samples     []SampleRequest `json:"samples"`
}

func (r ProblemRequest) validate(requireID bool) error {
	required := []struct {
		name    string
		present bool
	}{
		{"id", !requireID || strings.TrimSpace(r.ID) != ""},
		{"title", strings.TrimSpace(r.Title) != ""},
		{"statement", r.Statement != nil},
		{"input", r.Input != nil},
		{"output", r.Output != nil},
		{"constraints", r.Constraints != nil},
		{"vjLink", strings.TrimSpace(r.VJLink) != ""},
	}
	var missing []string
	for _, f := range required {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", common.ErrBadRequest, strings.Join(missing, ", "))
	}
	for i, s := range r.Samples {
		if s.Input == nil || s.Output == nil {
			return fmt.Errorf("%w: sample %d requires input and output", common.ErrBadRequest, i)
		}
	}
	return nil
}

func (r ProblemRequest) toModel(id string) (*model.Problem, []model.Sample) {
	p := &model.Problem{
		ID:          id,
		Title:       r.Title,
		Origin:      r.Origin,
		TimeLimit:   r.TimeLimit.Ptr(),
		MemoryLimit: r.MemoryLimit.Ptr(),
		Statement:   deref(r.Statement),
		Input:       deref(r.Input),
		Output:      deref(r.Output),
		Constraints: deref(r.Constraints),
		Note:        r.Note,
		VJLink:      r.VJLink,
	}
	samples := make([]model.Sample, 0, len(r.Samples))
	for _, s := range r.Samples {
		samples = append(samples, model.Sample{Input: deref(s.Input), Output: deref(s.Output)})
	}
	return p, samples
}

// Authorize compares token with the configured secret in constant time. An empty
// secret rejects every token.
func (s *AdminService) Authorize(token string) error {
	if s.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.secret)) != 1 {
		return common.ErrUnauthorized
	}
	return nil
}

func (s *AdminService) Login(ctx context.Context, token string) error {
	if err := s.Authorize(token); err != nil {
		logger.Warn(ctx, "admin login rejected")
		return fmt.Errorf("invalid password: %w", err)
	}
	logger.Info(ctx, "admin login accepted")
	return nil
}

// UpsertProblem creates the problem or overwrites every field of an existing one,
// then replaces its samples.
func (s *AdminService) UpsertProblem(ctx context.Context, req ProblemRequest) error {
	if err := req.validate(true); err != nil {
		return err
	}
	problem, samples := req.toModel(strings.TrimSpace(req.ID))

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.problemRepo.Upsert(ctx, tx, problem); err != nil {
			return err
		}
		return s.replaceSamples(ctx, tx, problem.ID, samples)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	logger.Info(ctx, "problem upserted", zap.String("problem_id", problem.ID), zap.Int("samples", len(samples)))
	return nil
}

// UpdateProblem rewrites an existing problem. An unknown id is not an error and
// creates nothing; inserting samples for it fails on the foreign key.
func (s *AdminService) UpdateProblem(ctx context.Context, id string, req ProblemRequest) error {
	if err := req.validate(false); err != nil {
		return err
	}
	problem, samples := req.toModel(id)

	var affected int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		n, err := s.problemRepo.Update(ctx, tx, problem)
		if err != nil {
			return err
		}
		affected = n
		return s.replaceSamples(ctx, tx, id, samples)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	if affected == 0 {
		logger.Warn(ctx, "update matched no problem", zap.String("problem_id", id))
		return nil
	}
	logger.Info(ctx, "problem updated", zap.String("problem_id", id), zap.Int("samples", len(samples)))
	return nil
}

// DeleteProblem removes samples first, then the problem. Unknown ids succeed.
func (s *AdminService) DeleteProblem(ctx context.Context, id string) error {
	var affected int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.problemRepo.DeleteSamplesByProblemID(ctx, tx, id); err != nil {
			return err
		}
		n, err := s.problemRepo.Delete(ctx, tx, id)
		affected = n
		return err
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	logger.Info(ctx, "problem deleted", zap.String("problem_id", id), zap.Int64("rows", affected))
	return nil
}

func (s *AdminService) replaceSamples(ctx context.Context, tx *sql.Tx, problemID string, samples []model.Sample) error {
	if err := s.problemRepo.DeleteSamplesByProblemID(ctx, tx, problemID); err != nil {
		return err
	}
	return s.problemRepo.AddSamplesToProblem(ctx, tx, problemID, samples)
}

// invalidate runs after commit. The mutation is durable at this point, so a cache
// failure is logged rather than reported to the caller.
func (s *AdminService) invalidate(ctx context.Context) {
	if err := s.cache.Clear(ctx); err != nil {
		logger.Error(ctx, "problem cache clear failed", zap.Error(err))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
