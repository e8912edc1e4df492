package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/api"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/app/service"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/domain/repository"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/cache"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/config"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/database"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/kv"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/logger"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/metrics"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Logger
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		log.Fatalf("Could not initialize logger: %v", err)
	}
	defer logger.Sync()
	ctx := context.Background()

	if cfg.UsesDefaultAdminPassword() {
		logger.Warn(ctx, "ADMIN_PASSWORD not set, using the built-in default")
	}

	// 3. Initialize Database
	connectCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout+5*time.Second)
	db, err := database.Connect(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.Fatal(ctx, "database unavailable", zap.Error(err))
	}
	defer db.Close()
	logger.Info(ctx, "database connected", zap.Int("max_open_conns", cfg.DBMaxOpenConns))

	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal(ctx, "schema bootstrap failed", zap.Error(err))
		}
	}

	// 4. Initialize Cache
	problemCache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "cache unavailable", zap.Error(err))
	}
	defer closeCache()
	logger.Info(ctx, "cache ready", zap.String("backend", cfg.CacheBackend), zap.Duration("ttl", cfg.CacheTTL))

	// 5. Initialize Repositories & Services
	m := metrics.New()
	router := api.NewRouter(api.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, newServices(db, problemCache, m, cfg.AdminPassword), m)

	// 6. HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info(ctx, "server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop

	logger.Info(ctx, "shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", zap.Error(err))
		return
	}
	logger.Info(ctx, "server stopped gracefully")
}

func newServices(db *sql.DB, c cache.Cache, m *metrics.Metrics, adminSecret string) api.Services {
	problemRepo := repository.NewPgProblemRepository(db)
	contestRepo := repository.NewPgContestRepository(db)

	return api.Services{
		Problems: service.NewProblemService(problemRepo, c, m),
		Admin:    service.NewAdminService(problemRepo, c, db, adminSecret),
		Contest:  service.NewContestService(contestRepo, db, m),
		Health:   service.NewHealthService(db, problemRepo, c),
	}
}

// newCache builds the configured backend. The returned func releases it.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return cache.NewMemoryCache(cfg.CacheTTL), func() {}, nil
	case "redis":
		rdb, err := kv.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisCache(rdb, cfg.CacheTTL), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CACHE_BACKEND %q", cfg.CacheBackend)
	}
}
