package application_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/platforma-dev/yatb/application"
)

type staticHealth struct {
	health *application.Health
}

func (s staticHealth) Health(context.Context) *application.Health {
	return s.health
}

func TestHealthCheckHandler_ServeHTTP(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, "false", migrations())
	ta.app.RegisterService("test-service", application.RunnerFunc(func(_ context.Context) error {
		return nil
	}))

	handler := application.NewHealthCheckHandler(ta.app)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	if contentType := rec.Header().Get("Content-Type"); contentType != "application/json" {
		t.Errorf("expected Content-Type %q, got %q", "application/json", contentType)
	}

	var health application.Health
	err := json.Unmarshal(rec.Body.Bytes(), &health)
	if err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if _, ok := health.Services["test-service"]; !ok || len(health.Services) != 1 {
		t.Errorf("expected only test-service in health response, got %v", health.Services)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

func TestHealthServer_Run(t *testing.T) {
	t.Parallel()

	health := application.NewHealth()
	health.AddService("console")

	addr := freeAddr(t)
	server := application.NewHealthServer(addr, staticHealth{health: health})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	url := fmt.Sprintf("http://%s/health", addr)

	var resp *http.Response
	var err error
	for range 50 {
		resp, err = http.Get(url) //nolint:noctx
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("health server did not come up: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Header.Get("Yatb-Trace-Id") == "" {
		t.Error("expected trace ID header on health response")
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("health server did not stop after cancellation")
	}
}
