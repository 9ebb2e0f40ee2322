package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
)

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// Init builds the process logger and installs it as zap's global logger.
func Init(cfg Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	l, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	zap.ReplaceGlobals(l)
	return l, nil
}

// WithContext returns the global logger annotated with request-scoped fields.
func WithContext(ctx context.Context) *zap.Logger {
	l := zap.L()
	if ctx == nil {
		return l
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if uid, ok := ctx.Value(UserIDKey).(string); ok && uid != "" {
		l = l.With(zap.String("user_id", uid))
	}
	return l
}
