// Package logging wraps a sugared zap logger for the manager run. It is
// constructed once per run and threaded explicitly through the Scheduler
// and Executor as part of the run-context value (spec §9 design note: no
// package-level ambient logger). The Notifier takes no logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a *zap.SugaredLogger with the structured fields this
// manager always attaches: job, archive, host, rule.
type Logger struct {
	*zap.SugaredLogger
}

// New builds a production-style JSON logger, or a development console
// logger when verbose is true (CLI's --verbose flag).
func New(verbose bool) (*Logger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	zl, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zl.Sugar()}, nil
}

// NewDefault returns a production-style logger, panicking on build error.
// Nothing in this module calls it; the run command builds its logger with
// New.
func NewDefault() *Logger {
	l, err := New(false)
	if err != nil {
		panic(err)
	}
	return l
}

// With attaches the run's standing fields and returns a derived Logger.
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

// ForArchive derives a child logger scoped to one archive run.
func (l *Logger) ForArchive(job, archive string) *Logger {
	return l.With("job", job, "archive", archive)
}

// ForTarget derives a child logger further scoped to one target/host.
func (l *Logger) ForTarget(host, rule string) *Logger {
	return l.With("host", host, "rule", rule)
}

// Sync flushes any buffered log entries; call before process exit.
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
