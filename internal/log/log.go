// Package log provides the command-line driver's zap logger.
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log *zap.SugaredLogger
	// wrapped skips the wrapper frame so package-level calls report their caller.
	wrapped *zap.SugaredLogger
)

// New builds a sugared logger. Debug mode uses zap's development config;
// otherwise production JSON output at info level, with ISO8601 timestamps.
func New(debug bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %v", err)
	}
	return zapLogger.Sugar(), nil
}

// Init initializes the package-level logger
func Init(debug bool) error {
	l, err := New(debug)
	if err != nil {
		return err
	}
	set(l)
	return nil
}

func set(l *zap.SugaredLogger) {
	log = l
	wrapped = l.WithOptions(zap.AddCallerSkip(1))
}

// GetSugaredLogger returns the sugared logger instance
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		// Fallback logger if not initialized
		set(zap.NewNop().Sugar())
	}
	return log
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Debugw(msg string, keysAndValues ...interface{}) {
	GetSugaredLogger()
	wrapped.Debugw(msg, keysAndValues...)
}

func Errorw(msg string, keysAndValues ...interface{}) {
	GetSugaredLogger()
	wrapped.Errorw(msg, keysAndValues...)
}
