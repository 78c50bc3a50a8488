// Package mcclog is a minimal injectable leveled logger. The buddy
// allocator's slow path logs a failed OS allocation through it instead
// of printing directly, so embedders can route it into their own logging
// stack; Noop is the silent default.
package mcclog

import "github.com/sirupsen/logrus"

// Logger is the minimal leveled-logging interface the allocator slow paths
// depend on. A nil Logger is not usable; use Noop to log nothing.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// Noop discards everything logged through it. It is the default logger
// for a buddy.Allocator created without an explicit WithLogger option.
var Noop Logger = noopLogger{}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Warnf(string, ...any)  {}

// Standard wraps a *logrus.Logger, the leveled-logger style
// _examples/direktiv-vorteil/pkg/elog.CLI wraps the same way (its
// Debugf/Warnf are thin pass-throughs to package-level logrus calls,
// gated by an IsDebug-style flag). Debug is the same gate: when false,
// Debugf is a no-op rather than merely a suppressed level, so callers
// that never enable it pay no formatting cost.
type Standard struct {
	Debug bool

	// Entry is the logrus logger to write through. A nil Entry lazily
	// falls back to logrus.StandardLogger().
	Entry *logrus.Logger
}

func (s Standard) entry() *logrus.Logger {
	if s.Entry != nil {
		return s.Entry
	}
	return logrus.StandardLogger()
}

func (s Standard) Debugf(format string, args ...any) {
	if !s.Debug {
		return
	}
	s.entry().Debugf(format, args...)
}

func (s Standard) Warnf(format string, args ...any) {
	s.entry().Warnf(format, args...)
}
