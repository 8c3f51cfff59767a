package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qcmbuilder/qcm-api/config"
	"github.com/qcmbuilder/qcm-api/ingest"
	"github.com/qcmbuilder/qcm-api/logger"
	"github.com/qcmbuilder/qcm-api/store"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestIngestCommand(t *testing.T) {
	path := writeFile(t, "serie.csv", "question,propositions,cas\n"+
		"\"Q1?\",\"A;B;C\",\n"+
		"\"Q2?\",\"X;Y\",case1\n"+
		"\"Q3?\",\"M;N\",case1\n"+
		"\"Q4?\",\"seule\",\n")

	out, err := run(t, "ingest", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, "3 questions in 2 groups (1 clinical cases)", lines[0])
	require.Equal(t, "1. QCM Q1? [3 options]", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "2. Cas clinique cas_"))
	require.Equal(t, "   1/2 Q2? [2 options]", lines[3])
	require.Equal(t, "   2/2 Q3? [2 options]", lines[4])
	require.Equal(t, "skipped: line 5 skipped: "+ingest.ReasonTooFewOptions, lines[5])
}

func TestIngestCommand_Errors(t *testing.T) {
	_, err := run(t, "ingest", writeFile(t, "serie.csv", "question,propositions\n"))
	require.ErrorIs(t, err, ingest.ErrEmptyOrInvalidFile)

	_, err = run(t, "ingest", writeFile(t, "serie.txt", "a\nb\n"))
	require.ErrorIs(t, err, ingest.ErrUnsupportedFormat)

	_, err = run(t, "ingest", "--format", "csv", writeFile(t, "serie.txt", "h\nQ,A;B\n"))
	require.NoError(t, err)

	_, err = run(t, "ingest", "--save", writeFile(t, "serie.csv", "h\nQ,A;B\n"))
	require.Error(t, err)
}

func TestIngestCommand_Save(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", filepath.Join(t.TempDir(), "qcm.db"))
	path := writeFile(t, "serie.csv", "h\nQ1?,A;B\nQ2?,C;D,cas\n")

	out, err := run(t, "ingest", path, "--save", "--user", "auth0|cli",
		"--objective", "AVC", "--faculty", "FMT", "--year", "2024")
	require.NoError(t, err)
	require.Contains(t, out, "saved series ")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "cli-secret")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_AUDIENCE", "")

	out, err := run(t, "token", "--sub", "auth0|dev", "--nickname", "dev")
	require.NoError(t, err)

	claims, err := issuerFrom(config.Load()).VerifyToken(strings.TrimSpace(out))
	require.NoError(t, err)
	require.Equal(t, "auth0|dev", claims.Subject)
	require.Equal(t, "dev", claims.Nickname)

	t.Setenv("JWT_SECRET_KEY", "")
	_, err = run(t, "token", "--sub", "auth0|dev")
	require.Error(t, err)
}

func TestNewServer(t *testing.T) {
	cfg := config.Config{
		JWTSecret:      "server-secret",
		JWTIssuer:      "qcm-api",
		JWTAudience:    "qcm-builder",
		CORSOrigins:    []string{"http://localhost:3000"},
		MaxUploadBytes: 1 << 20,
	}
	db, err := config.Connect(config.DriverSQLite, "file:cli_server?mode=memory&cache=shared")
	require.NoError(t, err)
	h, err := newServer(cfg, store.NewGormStore(db), logger.Nop())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/healthy", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	token, err := issuerFrom(cfg).CreateToken("auth0|server", "", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/series", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}
