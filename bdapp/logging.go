package bdapp

import (
	"github.com/advdv/bdispatch"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// Uses JSON encoding suitable for CloudWatch.
// BD_LOG_LEVEL controls the level (debug, info, warn, error). At debug level the dispatcher logs full
// payloads and keeps files it sent.
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logs, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return logs.With(zap.String("service", env.serviceName())), nil
}

// newDispatchLogger adapts the app logger for the dispatcher.
func newDispatchLogger(l *zap.Logger) bdispatch.Logger {
	return bdispatch.NewZapLogger(l.Named("bdapp"))
}
