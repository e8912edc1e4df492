package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
)

// Timeout puts a deadline on the request context. Handlers that hit it answer through
// the domain error responder; the 504 is written here only when the handler returned
// without writing anything.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			if ww.Status() == 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				common.RespondWithDomainError(ww, ctx.Err())
			}
		})
	}
}
