package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// GroupLogger returns a child logger with workspace-context fields.
func GroupLogger(base *zap.Logger, workspace, provider string) *zap.Logger {
	return base.With(
		zap.String("workspace", workspace),
		zap.String("cloud_provider", provider),
	)
}

// ResourceLogger adds the resource being acted on.
func ResourceLogger(base *zap.Logger, kind, name string) *zap.Logger {
	return base.With(
		zap.String("resource_kind", kind),
		zap.String("resource", name),
	)
}
