// Package logging builds the service's slog loggers and carries a
// request-scoped logger through context.
//
//	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
//	ctx = logging.WithLogger(ctx, logger.With(slog.String("request_id", id)))
//	logging.FromContextOr(ctx, logger).InfoContext(ctx, "creating portfolio")
//
// Use cases log the operation name, entity ids and slog.Any("error", err) on
// failure. Business-rule rejections go out at warn level with the rule name
// under "rule". Every handler redacts credentials and personal free text
// (see SensitiveHeaders and PersonalFields).
package logging

import (
	"context"
	"io"
	"log/slog"
)

type contextKey struct{}

// New creates a logger writing to w.
//
// level is any name slog understands ("debug", "INFO", "warn+1"); anything
// else falls back to info. format "text" selects slog's text handler, every
// other value JSON. Debug level also records the source location.
func New(level, format string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: newRedactAttr(),
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel converts a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContextOr returns the logger stored in ctx, or fallback when there is
// none.
func FromContextOr(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOr(ctx, slog.Default())
}
