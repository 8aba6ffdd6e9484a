package log

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// DefaultTraceHeader carries the trace ID of an HTTP request.
const DefaultTraceHeader = "Yatb-Trace-Id"

// WithTraceID returns a copy of ctx carrying a freshly generated trace ID.
// Every migration pass, extension load pass and scheduled job gets its own.
func WithTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, uuid.NewString())
}

// TraceIDFromContext returns the trace ID stored in ctx, if any.
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}

// TraceIDMiddleware gives each HTTP request a trace ID and echoes it in the
// response headers. A valid UUID sent by the caller in the same header is kept.
type TraceIDMiddleware struct {
	header string
}

// NewTraceIDMiddleware returns a new TraceID middleware.
// If header is empty, DefaultTraceHeader is used.
func NewTraceIDMiddleware(header string) *TraceIDMiddleware {
	if header == "" {
		header = DefaultTraceHeader
	}
	return &TraceIDMiddleware{header: header}
}

// Wrap adds trace ID to requests.
func (m *TraceIDMiddleware) Wrap(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(m.header)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}

		r = r.WithContext(context.WithValue(r.Context(), TraceIDKey, traceID))
		w.Header().Set(m.header, traceID)

		h.ServeHTTP(w, r)
	})
}
