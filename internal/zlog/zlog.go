// Package zlog configures the default slog logger to write through zap.
package zlog

import (
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger. Production uses JSON output, development uses
// colored console output.
func New(production bool, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

// Handler returns a slog handler writing to l.
func Handler(l *zap.Logger) slog.Handler {
	return zapslog.NewHandler(l.Core())
}

// Setup replaces the default slog logger. The returned function flushes
// buffered log entries.
func Setup(production bool, level string) (func(), error) {
	l, err := New(production, level)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(Handler(l)))
	return func() { _ = l.Sync() }, nil
}
