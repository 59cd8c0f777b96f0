// Package hostlog builds the zap loggers shared by the host tools and
// routes the core debug writer into them.
package hostlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pwmsync/core"
)

// New returns a console logger at info level, or debug when verbose
func New(name string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if verbose {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(name), nil
}

// RouteCoreDebug sends core debug output to logger at debug level
func RouteCoreDebug(logger *zap.Logger) {
	core.SetDebugWriter(func(msg string) {
		logger.Debug(msg)
	})
	core.SetDebugEnabled(logger.Core().Enabled(zapcore.DebugLevel))
}
