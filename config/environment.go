package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBDriver Driver
	DBURL    string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	CORSOrigins []string
	LogMode     string

	// Upper bound for an imported file, in bytes.
	MaxUploadBytes int64
}

// IsProduction reports whether the process runs with LOG_MODE=production.
func (c Config) IsProduction() bool {
	return c.LogMode == "production"
}

// LoadDotEnv loads .env when present. Production deployments set APP_ENV=production and
// get their environment from the platform instead.
func LoadDotEnv() error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	return godotenv.Load()
}

func Load() Config {
	return Config{
		Port:           envOr("PORT", "8080"),
		DBDriver:       Driver(envOr("DB_DRIVER", string(DriverSQLite))),
		DBURL:          envOr("DB_URL", ""),
		JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
		JWTIssuer:      envOr("JWT_ISSUER", "qcm-api"),
		JWTAudience:    envOr("JWT_AUDIENCE", "qcm-builder"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		LogMode:        envOr("LOG_MODE", "development"),
		MaxUploadBytes: int64Or("MAX_UPLOAD_BYTES", 5<<20),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func int64Or(k string, def int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(k), 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
