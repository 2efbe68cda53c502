package uclog

import (
	"context"
	"fmt"
)

// A set of wrappers that log messages at a pre-set level.

// Errorf logs an error with optional format-string parsing.
func Errorf(ctx context.Context, f string, args ...interface{}) {
	logf(ctx, LogLevelError, f, args...)
}

// Warningf logs a string at warning level.
func Warningf(ctx context.Context, f string, args ...interface{}) {
	logf(ctx, LogLevelWarning, f, args...)
}

// Infof logs a string at info level (default visible in user console).
func Infof(ctx context.Context, f string, args ...interface{}) {
	logf(ctx, LogLevelInfo, f, args...)
}

// Debugf logs a string with optional format-string parsing; these are
// internal-to-the-library logs not normally surfaced to operators.
func Debugf(ctx context.Context, f string, args ...interface{}) {
	logf(ctx, LogLevelDebug, f, args...)
}

// Verbosef is the loudest level, intended for wire-level tracing.
func Verbosef(ctx context.Context, f string, args ...interface{}) {
	logf(ctx, LogLevelVerbose, f, args...)
}

func logf(ctx context.Context, level LogLevel, f string, args ...interface{}) {
	Log(ctx, LogEvent{LogLevel: level, Message: fmt.Sprintf(f, args...), Count: 1})
}

// IncrementEvent records a named counter event without an accompanying message.
func IncrementEvent(ctx context.Context, eventName string) {
	Log(ctx, LogEvent{LogLevel: LogLevelNonMessage, Name: eventName, Count: 1})
}
