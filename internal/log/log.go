// Package log is the process-wide structured logger, a thin layer over zap.
package log

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	mu          sync.RWMutex
	loggerLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger      = newLogger(zapcore.Lock(os.Stdout))
)

func newLogger(ws zapcore.WriteSyncer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
	return zap.New(zapcore.NewCore(encoder, ws, loggerLevel), zap.AddCaller(), zap.AddCallerSkip(1))
}

// SetLevel changes the minimum level. Unknown names fall back to info.
func SetLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		loggerLevel.SetLevel(zap.DebugLevel)
	case "warn", "warning":
		loggerLevel.SetLevel(zap.WarnLevel)
	case "error":
		loggerLevel.SetLevel(zap.ErrorLevel)
	case "fatal":
		loggerLevel.SetLevel(zap.FatalLevel)
	default:
		loggerLevel.SetLevel(zap.InfoLevel)
	}
}

// Init configures level and output. An empty path logs to stdout.
func Init(level, path string) error {
	SetLevel(level)

	ws := zapcore.Lock(os.Stdout)
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return errors.Wrapf(err, "open log file %s", path)
		}
		ws = zapcore.Lock(f)
	}

	mu.Lock()
	logger = newLogger(ws)
	mu.Unlock()
	return nil
}

// SetOutput replaces the log sink, mainly for tests.
func SetOutput(ws zapcore.WriteSyncer) {
	mu.Lock()
	logger = newLogger(ws)
	mu.Unlock()
}

// With returns a context whose log lines carry the given fields.
func With(ctx context.Context, fields ...zap.Field) context.Context {
	return context.WithValue(ctx, ctxKey{}, append(contextFields(ctx), fields...))
}

func contextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(ctxKey{}).([]zap.Field)
	return fields[:len(fields):len(fields)]
}

func get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(ctx context.Context, format string, v ...any) {
	get().Debug(fmt.Sprintf(format, v...), contextFields(ctx)...)
}

func Infof(ctx context.Context, format string, v ...any) {
	get().Info(fmt.Sprintf(format, v...), contextFields(ctx)...)
}

func Warnf(ctx context.Context, format string, v ...any) {
	get().Warn(fmt.Sprintf(format, v...), contextFields(ctx)...)
}

func Errorf(ctx context.Context, format string, v ...any) {
	get().Error(fmt.Sprintf(format, v...), contextFields(ctx)...)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = get().Sync()
}
