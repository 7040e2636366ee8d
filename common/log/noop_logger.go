package log

import (
	"github.com/capbridge/capbridge/common/log/tag"
)

type (
	noopLogger struct{}
)

var _ Logger = (*noopLogger)(nil)

// NewNoopLogger returns a logger that discards everything.
func NewNoopLogger() *noopLogger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(string, ...tag.Tag) {}
func (l *noopLogger) Info(string, ...tag.Tag)  {}
func (l *noopLogger) Warn(string, ...tag.Tag)  {}
func (l *noopLogger) Error(string, ...tag.Tag) {}
func (l *noopLogger) Fatal(string, ...tag.Tag) {}

func (l *noopLogger) With(...tag.Tag) Logger {
	return l
}
