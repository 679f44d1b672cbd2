package modisco

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with modisco-specific helpers for consistent field
// names across save/load/convert operations.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses the default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))}
}

// WithArchive adds the archive path to the logger.
func (l *Logger) WithArchive(path string) *Logger {
	return &Logger{Logger: l.Logger.With("archive", path)}
}

// LogSave logs a save operation.
func (l *Logger) LogSave(ctx context.Context, path string, metaclusters int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"archive", path,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "save completed",
			"archive", path,
			"metaclusters", metaclusters,
		)
	}
}

// LogLoad logs a load operation.
func (l *Logger) LogLoad(ctx context.Context, path string, metaclusters int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"archive", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "load completed",
			"archive", path,
			"metaclusters", metaclusters,
		)
	}
}

// LogConvert logs a schema conversion, including the dropped-field list of a
// lossy downgrade.
func (l *Logger) LogConvert(ctx context.Context, direction, src, dst string, dropped []string, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "conversion failed",
			"direction", direction,
			"src", src,
			"dst", dst,
			"error", err,
		)
	case len(dropped) > 0:
		l.WarnContext(ctx, "conversion completed with loss",
			"direction", direction,
			"src", src,
			"dst", dst,
			"dropped", dropped,
		)
	default:
		l.InfoContext(ctx, "conversion completed",
			"direction", direction,
			"src", src,
			"dst", dst,
		)
	}
}
