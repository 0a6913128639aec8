package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

// tbAppender writes through tb.Log so each line is attributed to the running test.
type tbAppender struct {
	testing.TB
}

// NewTestAppender returns an appender that logs to tb.
func NewTestAppender(tb testing.TB) Appender {
	return tbAppender{tb}
}

func (app tbAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	app.Helper()
	app.Log(formatEntry(entry, fields))
	return nil
}

func (app tbAppender) Sync() error {
	return nil
}
