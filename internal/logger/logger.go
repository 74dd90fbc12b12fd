// Package logger adapts go.uber.org/zap to the types.Logger interface
// boundary the engine's surrounding layers depend on, so nothing under
// internal/engine imports zap directly.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kcloud-opt/loadsched/internal/config"
	"github.com/kcloud-opt/loadsched/internal/types"
)

// Logger wraps a zap.SugaredLogger so callers can pass loosely-typed
// key/value pairs through the types.Logger interface's
// `fields ...interface{}` signature without each call site constructing
// zap.Field values.
type Logger struct {
	sugar *zap.SugaredLogger
}

var _ types.Logger = (*Logger)(nil)

// New builds a Logger from configuration: encoding selected by format,
// output to file or stdout, ISO8601 timestamps, lowercase level names.
func New(cfg *config.LoggingConfig) (*Logger, error) {
	var zapConfig zap.Config
	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	if cfg.Output == "file" && cfg.FilePath != "" {
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zapConfig.OutputPaths = []string{cfg.FilePath}
		zapConfig.ErrorOutputPaths = []string{cfg.FilePath}
	} else {
		zapConfig.OutputPaths = []string{"stdout"}
		zapConfig.ErrorOutputPaths = []string{"stderr"}
	}

	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.CallerKey = "caller"
	zapConfig.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapConfig.EncoderConfig.LevelKey = "level"
	zapConfig.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	zapConfig.EncoderConfig.MessageKey = "message"

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{sugar: zapLogger.Sugar()}, nil
}

func (l *Logger) Info(msg string, fields ...interface{})  { l.sugar.Infow(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...interface{})  { l.sugar.Warnw(msg, fields...) }
func (l *Logger) Error(msg string, fields ...interface{}) { l.sugar.Errorw(msg, fields...) }
func (l *Logger) Debug(msg string, fields ...interface{}) { l.sugar.Debugw(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...interface{}) { l.sugar.Fatalw(msg, fields...) }

func (l *Logger) WithError(err error) types.Logger {
	return &Logger{sugar: l.sugar.With("error", err)}
}

func (l *Logger) WithDuration(duration time.Duration) types.Logger {
	return &Logger{sugar: l.sugar.With("duration", duration)}
}

func (l *Logger) WithTask(taskID string) types.Logger {
	return &Logger{sugar: l.sugar.With("task_id", taskID)}
}

func (l *Logger) WithSchedule(scheduleID string) types.Logger {
	return &Logger{sugar: l.sugar.With("schedule_id", scheduleID)}
}

func (l *Logger) WithRequest(requestID string) types.Logger {
	return &Logger{sugar: l.sugar.With("request_id", requestID)}
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.sugar.Sync() }

var global types.Logger

// InitGlobal builds and installs the process-wide logger.
func InitGlobal(cfg *config.LoggingConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	global = l
	return nil
}

// Global returns the process-wide logger, falling back to a bare
// development logger if InitGlobal was never called.
func Global() types.Logger {
	if global == nil {
		fallback, _ := New(&config.LoggingConfig{Level: "info", Format: "console", Output: "stdout"})
		global = fallback
	}
	return global
}
