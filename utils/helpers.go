package utils

import (
	"context"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/qcmbuilder/qcm-api/models"
)

type contextKey string

const userKey contextKey = "user"

// GetSubject returns the subject of the validated token on the request.
func GetSubject(r *http.Request) (string, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the user attached by the user-sync middleware.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok && user != nil
}
