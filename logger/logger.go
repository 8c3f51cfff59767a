package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a key/value logger backed by zap's sugared logger.
type Logger struct {
	sugar *zap.SugaredLogger
}

// New builds a logger. mode "prod"/"production" selects JSON output at info level,
// anything else a console logger at debug level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{sugar: z.Sugar()}, nil
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.sugar.Sync()
}

func (l *Logger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, redact(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, redact(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, redact(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, redact(kv)...) }

func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sugar: l.sugar.With(redact(kv)...)}
}

// redact hides values whose key looks like a credential.
func redact(kv []any) []any {
	if len(kv) < 2 {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		if isSecretKey(strings.ToLower(key)) {
			out[i+1] = "[REDACTED]"
		}
	}
	return out
}

func isSecretKey(key string) bool {
	for _, s := range []string{"token", "authorization", "password", "secret", "cookie"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
