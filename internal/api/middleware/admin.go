package middleware

import (
	"net/http"

	"github.com/taaha-0548/Coders-Cup-Problems/internal/common"
	"github.com/taaha-0548/Coders-Cup-Problems/internal/platform/logger"
)

// AdminTokenHeader carries the shared admin secret.
const AdminTokenHeader = "X-Admin-Token"

type Authorizer interface {
	Authorize(token string) error
}

// AdminOnly rejects requests whose X-Admin-Token does not match the admin secret.
func AdminOnly(auth Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Authorize(r.Header.Get(AdminTokenHeader)); err != nil {
				logger.Warn(r.Context(), "admin request rejected")
				common.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
