// Package logging constructs the zap logger used across the build. A
// logger is built once at process start and passed by value (as a
// *zap.SugaredLogger) into every component, the same dependency-by-value
// idiom ninesl/scryball uses for the client/db pair in its Scryball
// struct — just applied to the logger instead.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style JSON logger, raised to debug level when
// debug is true (<PREFIX>_DEBUG).
func New(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// NewNop returns a no-op logger, used by tests that don't want build
// output on stderr.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
