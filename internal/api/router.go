package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/api/handler"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/api/middleware"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/metrics"
)

type RouterConfig struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type Services struct {
	Problems handler.ProblemReader
	Admin    handler.AdminOperations
	Contest  handler.ContestOperations
	Health   handler.HealthChecker
}

func NewRouter(cfg RouterConfig, svc Services, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.AccessLog(m))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.AdminTokenHeader},
		MaxAge:         300,
	}))

	r.Handle("/metrics", m.Handler())

	contestHandler := handler.NewContestHandler(svc.Contest)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r.Route("/api", func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		// Info and health (public)
		handler.NewHealthHandler(svc.Health).RegisterRoutes(api)

		// Problem reads (public, cached)
		api.Route("/problems", handler.NewProblemHandler(svc.Problems).RegisterRoutes)

		// Contest polling (public, rate limited)
		api.Route("/contest", func(contest chi.Router) {
			contest.Use(limiter.Handler)
			contestHandler.RegisterRoutes(contest)
		})

		// Admin routes (X-Admin-Token)
		api.Route("/admin", func(admin chi.Router) {
			handler.NewAdminHandler(svc.Admin).RegisterRoutes(admin)
			admin.Group(func(protected chi.Router) {
				protected.Use(middleware.AdminOnly(svc.Admin))
				protected.Route("/contest", contestHandler.RegisterAdminRoutes)
			})
		})
	})

	return r
}
