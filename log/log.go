// Package log is the bot's structured logger. Records are attributed with the
// service, startup task, extension, migration, command and author found in the
// context, plus the trace ID of the pass or request that produced them.
package log //nolint:revive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

// Format selects the handler used by New.
type Format string

const (
	// FormatText writes logfmt-style key=value records.
	FormatText Format = "text"
	// FormatJSON writes one JSON object per record.
	FormatJSON Format = "json"
)

// ParseFormat validates a LOG_FORMAT value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported log format %q", s)
	}
}

type contextKey string

const (
	// TraceIDKey is the context key for trace ID.
	TraceIDKey contextKey = "traceId"
	// ServiceNameKey is the context key for service name.
	ServiceNameKey contextKey = "serviceName"
	// StartupTaskKey is the context key for startup task.
	StartupTaskKey contextKey = "startupTask"
	// ExtensionKey is the context key for the extension being loaded.
	ExtensionKey contextKey = "extension"
	// MigrationKey is the context key for the migration being applied.
	MigrationKey contextKey = "migration"
	// CommandKey is the context key for the bot command being invoked.
	CommandKey contextKey = "command"
	// AuthorKey is the context key for the author of the invoking message.
	AuthorKey contextKey = "author"
)

// attributed lists the keys promoted to record attributes, in output order.
var attributed = []contextKey{ //nolint:gochecknoglobals
	TraceIDKey,
	ServiceNameKey,
	StartupTaskKey,
	ExtensionKey,
	MigrationKey,
	CommandKey,
	AuthorKey,
}

// contextHandler adds the attributed context values to every record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, key := range attributed {
		if value, ok := ctx.Value(key).(string); ok && value != "" {
			r.AddAttrs(slog.String(string(key), value))
		}
	}

	if err := h.Handler.Handle(ctx, r); err != nil {
		return fmt.Errorf("failed to handle log record: %w", err)
	}
	return nil
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// New creates a logger writing to w in the given format at level and above.
func New(w io.Writer, format Format, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	if format == FormatJSON {
		return slog.New(contextHandler{slog.NewJSONHandler(w, opts)})
	}
	return slog.New(contextHandler{slog.NewTextHandler(w, opts)})
}

var current atomic.Pointer[slog.Logger] //nolint:gochecknoglobals

func init() {
	current.Store(New(os.Stdout, FormatText, slog.LevelInfo))
}

// SetDefault replaces the logger used by the package-level functions.
func SetDefault(l *slog.Logger) {
	current.Store(l)
}

// Default returns the logger used by the package-level functions.
func Default() *slog.Logger {
	return current.Load()
}

// DebugContext logs at Debug level.
func DebugContext(ctx context.Context, msg string, args ...any) {
	Default().DebugContext(ctx, msg, args...)
}

// InfoContext logs at Info level.
func InfoContext(ctx context.Context, msg string, args ...any) {
	Default().InfoContext(ctx, msg, args...)
}

// WarnContext logs at Warn level.
func WarnContext(ctx context.Context, msg string, args ...any) {
	Default().WarnContext(ctx, msg, args...)
}

// ErrorContext logs at Error level.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Default().ErrorContext(ctx, msg, args...)
}
