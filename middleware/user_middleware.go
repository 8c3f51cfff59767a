package middleware

import (
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/qcmbuilder/qcm-api/logger"
	"github.com/qcmbuilder/qcm-api/store"
	"github.com/qcmbuilder/qcm-api/utils"
)

// SyncUserMiddleware ensures the token subject exists as a user and attaches it to the
// request context.
func SyncUserMiddleware(users store.Users, log *logger.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
			if !ok || claims.RegisteredClaims.Subject == "" {
				http.Error(w, "No token subject found", http.StatusUnauthorized)
				return
			}

			nickname := ""
			if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
				nickname = customClaims.Nickname
			}

			user, err := users.SyncUser(r.Context(), claims.RegisteredClaims.Subject, nickname)
			if err != nil {
				log.Error("SyncUserMiddleware: failed to sync user", "subject", claims.RegisteredClaims.Subject, "error", err)
				http.Error(w, "Failed to sync user", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), &user)))
		}
	}
}
