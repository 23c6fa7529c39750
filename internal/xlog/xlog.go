// Package xlog builds the process-wide zap logger, switching between a
// production JSON config and a debug-level development config the same way
// the wider example stack wires zap into a cobra entrypoint.
package xlog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger. debug raises the level to Debug and switches to a
// human-readable console encoder; otherwise a production JSON logger is
// used.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("xlog: build development logger: %w", err)
		}
		return logger, nil
	}

	cfg := zap.NewProductionConfig()
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("xlog: build production logger: %w", err)
	}
	return logger, nil
}
