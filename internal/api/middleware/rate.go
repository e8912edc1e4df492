package middleware

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/logger"
)

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	limit    rate.Limit
	burst    int
	limiters sync.Map
}

// NewRateLimiter returns nil when rps is not positive, which disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limit: rate.Limit(rps), burst: burst}
}

func (l *RateLimiter) allow(key string) bool {
	limiter, ok := l.limiters.Load(key)
	if !ok {
		limiter, _ = l.limiters.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	}
	return limiter.(*rate.Limiter).Allow()
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			logger.Info(r.Context(), "rate limited")
			err := common.ErrTooManyRequests
			common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects chi's RealIP to have run; RemoteAddr may still carry a port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
