package logging

import (
	"context"
	"log/slog"
	"strings"
)

// Logger is the narrow sink threaded through analysis code. Implementations
// must tolerate concurrent calls; callers tolerate a nil Logger.
type Logger interface {
	Log(level, stage, message, detail string)
}

// Log forwards to l when it is non-nil.
func Log(l Logger, level, stage, message, detail string) {
	if l == nil {
		return
	}
	l.Log(level, stage, message, detail)
}

type SlogLogger struct {
	L *slog.Logger
}

func NewSlog(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Log(level, stage, message, detail string) {
	attrs := []any{"stage", stage}
	if strings.TrimSpace(detail) != "" {
		attrs = append(attrs, "detail", detail)
	}
	s.L.Log(context.Background(), slogLevel(level), message, attrs...)
}

func slogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "RISK":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type multi []Logger

// Multi fans one log line out to every non-nil sink.
func Multi(loggers ...Logger) Logger {
	out := make(multi, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (m multi) Log(level, stage, message, detail string) {
	for _, l := range m {
		l.Log(level, stage, message, detail)
	}
}
