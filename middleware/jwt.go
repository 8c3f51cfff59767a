package middleware

import (
	"context"
	"net/http"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/qcmbuilder/qcm-api/auth"
	"github.com/qcmbuilder/qcm-api/logger"
)

// CustomClaims holds the non-registered claims the API reads.
type CustomClaims struct {
	Nickname string `json:"nickname"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken rejects requests without a valid HS256 bearer token for the issuer.
func EnsureValidToken(issuer auth.Issuer, log *logger.Logger) (func(http.Handler) http.Handler, error) {
	keyFunc := func(ctx context.Context) (interface{}, error) {
		return issuer.Secret, nil
	}
	jwtValidator, err := validator.New(
		keyFunc,
		validator.HS256,
		issuer.Issuer,
		[]string{issuer.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims { return &CustomClaims{} }),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("EnsureValidToken: rejected request", "path", r.URL.Path, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Failed to validate JWT."}`))
	}
	mw := jwtmiddleware.New(jwtValidator.ValidateToken, jwtmiddleware.WithErrorHandler(errorHandler))

	return func(next http.Handler) http.Handler {
		return mw.CheckJWT(next)
	}, nil
}
