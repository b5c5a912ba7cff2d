package logger_i

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/akolanti/studyfellow/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	inner *slog.Logger
}

func Init(settings config.Settings) {
	options := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}

	var out io.Writer = os.Stdout
	if settings.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   settings.LogFile,
			MaxSize:    config.LogFileMaxSizeMB,
			MaxBackups: config.LogFileMaxBackups,
			MaxAge:     config.LogFileMaxAgeDays,
			Compress:   true,
		})
	}

	var handler slog.Handler
	if settings.IsProd {
		options.Level = config.LOG_LEVEL_PROD
		handler = slog.NewJSONHandler(out, options)
	} else {
		handler = slog.NewTextHandler(out, options)
	}
	slog.SetDefault(slog.New(handler))
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Logger) log(level slog.Level, msg string, args ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	l.inner.Log(context.Background(), level, msg, args...)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}

// WithTrace tags the logger with the trace id carried by ctx, if any.
func (l *Logger) WithTrace(ctx context.Context) *Logger {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	if trace == "" {
		return l
	}
	return l.With("traceId", trace)
}
