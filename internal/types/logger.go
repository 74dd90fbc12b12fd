package types

import "time"

// Logger is the logging interface the layers around the engine (handlers,
// metrics, upstream, schema validator) depend on; the packages under
// internal/engine do not log. Concrete implementations live in
// internal/logger so that no caller needs to import zap directly.
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Fatal(msg string, fields ...interface{})

	WithError(err error) Logger
	WithDuration(duration time.Duration) Logger
	WithTask(taskID string) Logger
	WithSchedule(scheduleID string) Logger
	WithRequest(requestID string) Logger
}
