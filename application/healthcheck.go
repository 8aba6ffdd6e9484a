package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/platforma-dev/yatb/log"
)

type healther interface {
	Health(context.Context) *Health
}

// HealthCheckHandler serves application health information as JSON.
type HealthCheckHandler struct {
	app healther
}

// NewHealthCheckHandler creates a HealthCheckHandler for the given application.
func NewHealthCheckHandler(app healther) *HealthCheckHandler {
	return &HealthCheckHandler{app: app}
}

func (h *HealthCheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	health := h.app.Health(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(health)
	if err != nil {
		log.ErrorContext(r.Context(), "failed to encode health response", "error", err)
	}
}

// HealthServer is a service exposing the health document over HTTP.
type HealthServer struct {
	server *http.Server
}

// NewHealthServer creates a HealthServer listening on addr.
// Every request gets its own trace ID.
func NewHealthServer(addr string, app healther) *HealthServer {
	mux := http.NewServeMux()
	mux.Handle("GET /health", NewHealthCheckHandler(app))

	return &HealthServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           log.NewTraceIDMiddleware("").Wrap(mux),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled.
func (s *HealthServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "health server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("health server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down health server: %w", err)
	}

	return nil
}
