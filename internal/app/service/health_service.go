package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/repository"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/cache"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/logger"
)

type HealthService struct {
	db          *sql.DB
	problemRepo repository.ProblemRepository
	cache       cache.Cache
}

func NewHealthService(db *sql.DB, problemRepo repository.ProblemRepository, c cache.Cache) *HealthService {
	return &HealthService{db: db, problemRepo: problemRepo, cache: c}
}

type HealthReport struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	CacheSize int    `json:"cache_size"`
}

// Check pings the datastore and reports the cache size. A cache that cannot be
// counted reports -1 without failing the check.
func (s *HealthService) Check(ctx context.Context) (*HealthReport, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return nil, common.DependencyError("ping database", err)
	}
	size, err := s.cache.Len(ctx)
	if err != nil {
		logger.Warn(ctx, "cache size unavailable", zap.Error(err))
		size = -1
	}
	return &HealthReport{Status: "healthy", Database: "connected", CacheSize: size}, nil
}

// TestConnection performs a full round trip and returns the number of problems.
func (s *HealthService) TestConnection(ctx context.Context) (int, error) {
	return s.problemRepo.Count(ctx)
}
