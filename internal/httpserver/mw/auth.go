package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/smartmark/internal/auth"
	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

// RequireAuth rejects requests without a valid access token and stores the
// owner id in the request context (see auth.UserID).
func RequireAuth(v *auth.Verifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			userID, err := v.Authenticate(r)
			if err != nil {
				log.Debug("RequireAuth: rejected", logger.String("path", r.URL.Path), logger.Error(err))
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}
