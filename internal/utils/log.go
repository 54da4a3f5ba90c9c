// Package utils holds small data structures and helpers shared across the
// sender, the flow controller and the scheduler: the leveled logger and the
// interval-set used for acked_intervals and stream-id bookkeeping.
package utils

import "github.com/sirupsen/logrus"

// Logger is the leveled logger used throughout this module, matching the
// teacher's Debugf/Infof-gated internal/utils.Logger.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debug() bool
}

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger wraps a logrus.FieldLogger's entry for a given connection or
// component, so every log line can be traced back to the stream/connection
// it came from.
func NewLogger(component string) Logger {
	return &logrusLogger{entry: logrus.WithField("component", component)}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Debug() bool {
	return logrus.IsLevelEnabled(logrus.DebugLevel)
}

// NopLogger discards everything; used in tests that don't care about log
// output.
var NopLogger Logger = &nopLogger{}

type nopLogger struct{}

func (*nopLogger) Debugf(string, ...interface{}) {}
func (*nopLogger) Infof(string, ...interface{})  {}
func (*nopLogger) Debug() bool                   { return false }
