package auth

import (
	"errors"
	"net/http"

	"github.com/ghuser/itemlocations/pkg/httpx"
	"github.com/ghuser/itemlocations/pkg/logger"
)

// RequireBearer is a chi middleware that enforces bearer authentication.
// It runs before any handler reads the body, so a request that is both
// unauthenticated and malformed is reported as an auth failure.
// Responds 401 for a missing or invalid credential and 503 when the identity
// provider is unavailable.
//
// After this middleware, handlers can safely call auth.PrincipalFromCtx(r.Context()).
func RequireBearer(a *Authorizer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := a.Authorize(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				status := http.StatusUnauthorized
				var authErr *AuthError
				if errors.As(err, &authErr) {
					status = authErr.HTTPStatus()
				}
				if status >= http.StatusInternalServerError {
					log.ErrorContext(r.Context(), "identity provider unavailable", "error", err)
				} else {
					log.WarnContext(r.Context(), "authentication failed", "error", err)
				}
				w.Header().Set("WWW-Authenticate", `Bearer`)
				httpx.JSONError(w, status, "Authentication failed: "+err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
