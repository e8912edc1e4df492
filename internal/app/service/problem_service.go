package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/model"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/repository"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/cache"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/logger"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/metrics"
)

const (
	allProblemsKey = "all_problems"

	// loadTimeout bounds a shared load, which no longer follows any one caller's deadline.
	loadTimeout = 30 * time.Second
)

func problemKey(id string) string {
	return "problem_" + id
}

// ProblemService serves problem reads through the cache.
type ProblemService struct {
	problemRepo repository.ProblemRepository
	cache       cache.Cache
	metrics     *metrics.Metrics
	loads       singleflight.Group
}

func NewProblemService(problemRepo repository.ProblemRepository, c cache.Cache, m *metrics.Metrics) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		cache:       c,
		metrics:     m,
	}
}

func (s *ProblemService) ListProblems(ctx context.Context) ([]model.ProblemSummary, error) {
	return readThrough(ctx, s, allProblemsKey, s.problemRepo.ListSummaries)
}

func (s *ProblemService) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	return readThrough(ctx, s, problemKey(id), func(ctx context.Context) (*model.Problem, error) {
		return s.problemRepo.FindWithSamples(ctx, id)
	})
}

// readThrough returns the cached value under key or loads, stores and returns it.
// Concurrent misses on one key share a single load. The load is detached from the
// cancellation of whichever caller started it; each caller stops waiting on its own
// context. A failing cache is treated as a miss so reads keep working against the datastore.
func readThrough[T any](ctx context.Context, s *ProblemService, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	raw, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.ObserveCache(metrics.CacheError)
		logger.Warn(ctx, "cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			s.metrics.ObserveCache(metrics.CacheHit)
			return cached, nil
		}
		logger.Warn(ctx, "discarding undecodable cache entry", zap.String("key", key))
	}
	s.metrics.ObserveCache(metrics.CacheMiss)

	loadCtx := context.WithoutCancel(ctx)
	results := s.loads.DoChan(key, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(loadCtx, loadTimeout)
		defer cancel()

		// Taken before the load so a Clear during it discards the result.
		gen, genErr := s.cache.Generation(ctx)
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if genErr != nil {
			logger.Warn(ctx, "cache generation unavailable, result not stored", zap.String("key", key), zap.Error(genErr))
			return value, nil
		}
		if encoded, err := json.Marshal(value); err == nil {
			if err := s.cache.SetAt(ctx, gen, key, encoded); err != nil {
				logger.Warn(ctx, "cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}
		if res.Shared {
			logger.Debug(ctx, "shared in-flight load", zap.String("key", key))
		}
		return res.Val.(T), nil
	}
}
