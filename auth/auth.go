package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMissingSecret = errors.New("auth: JWT secret key not set")

// Issuer mints and checks HS256 tokens for the API.
type Issuer struct {
	Secret   []byte
	Issuer   string
	Audience string
}

// Claims carries the nickname next to the registered claims.
type Claims struct {
	Nickname string `json:"nickname,omitempty"`
	jwt.RegisteredClaims
}

func (i Issuer) CreateToken(subject, nickname string, ttl time.Duration) (string, error) {
	if len(i.Secret) == 0 {
		return "", ErrMissingSecret
	}
	now := time.Now()
	claims := Claims{
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.Issuer,
			Audience:  jwt.ClaimStrings{i.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(i.Secret)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (i Issuer) VerifyToken(tokenString string) (*Claims, error) {
	if len(i.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return i.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.Issuer),
		jwt.WithAudience(i.Audience),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return &claims, nil
}
