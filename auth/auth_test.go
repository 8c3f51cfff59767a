package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testIssuer = Issuer{Secret: []byte("test-secret"), Issuer: "qcm-api", Audience: "qcm-builder"}

func TestCreateVerify(t *testing.T) {
	token, err := testIssuer.CreateToken("auth0|alice", "alice", time.Hour)
	require.NoError(t, err)

	claims, err := testIssuer.VerifyToken(token)
	require.NoError(t, err)
	require.Equal(t, "auth0|alice", claims.Subject)
	require.Equal(t, "alice", claims.Nickname)
}

func TestVerifyToken_Rejects(t *testing.T) {
	expired, err := testIssuer.CreateToken("auth0|alice", "", -time.Minute)
	require.NoError(t, err)
	_, err = testIssuer.VerifyToken(expired)
	require.Error(t, err)

	other := testIssuer
	other.Secret = []byte("other-secret")
	forged, err := other.CreateToken("auth0|alice", "", time.Hour)
	require.NoError(t, err)
	_, err = testIssuer.VerifyToken(forged)
	require.Error(t, err)

	wrongAudience := testIssuer
	wrongAudience.Audience = "someone-else"
	token, err := wrongAudience.CreateToken("auth0|alice", "", time.Hour)
	require.NoError(t, err)
	_, err = testIssuer.VerifyToken(token)
	require.Error(t, err)
}

func TestMissingSecret(t *testing.T) {
	_, err := Issuer{}.CreateToken("auth0|alice", "", time.Hour)
	require.ErrorIs(t, err, ErrMissingSecret)
	_, err = Issuer{}.VerifyToken("x.y.z")
	require.ErrorIs(t, err, ErrMissingSecret)
}
