package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/trivenisilks/triveni-backend/api/responses"
	"github.com/trivenisilks/triveni-backend/pkg/config"
	pkgerrors "github.com/trivenisilks/triveni-backend/pkg/errors"
	"github.com/trivenisilks/triveni-backend/pkg/logger"
)

const adminTokenHeader = "X-Admin-Token"

// RequireAdminToken guards back-office routes behind the shared admin token.
// An unset token disables the surface entirely rather than leaving it open.
func RequireAdminToken(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.APIToken == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin surface is not configured"))
				return
			}
			presented := r.Header.Get(adminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(cfg.APIToken)) != 1 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "admin token missing or invalid"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
