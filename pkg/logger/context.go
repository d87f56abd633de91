package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// Into stores l on ctx so request or message scoped fields follow the call chain.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// With adds fields to the logger carried by ctx.
func With(ctx context.Context, fields ...any) context.Context {
	return Into(ctx, From(ctx).With(fields...))
}

// From returns the logger carried by ctx, falling back to the process logger.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return LoggerWrapper()
}
