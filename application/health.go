package application

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/platforma-dev/yatb/database"
	"github.com/platforma-dev/yatb/extension"
)

// ServiceStatus represents the lifecycle state of a service.
type ServiceStatus string

const (
	// ServiceStatusNotStarted indicates service has not started yet.
	ServiceStatusNotStarted ServiceStatus = "NOT_STARTED"
	// ServiceStatusStarted indicates service is currently running.
	ServiceStatusStarted ServiceStatus = "STARTED"
	// ServiceStatusStopped indicates service returned without an error.
	ServiceStatusStopped ServiceStatus = "STOPPED"
	// ServiceStatusError indicates service finished with an error.
	ServiceStatusError ServiceStatus = "ERROR"
)

// ServiceHealth contains health information for a single service.
type ServiceHealth struct {
	Status    ServiceStatus `json:"status"`
	StartedAt *time.Time    `json:"startedAt"`
	StoppedAt *time.Time    `json:"stoppedAt,omitempty"`
	Error     string        `json:"error,omitempty"`
	Data      any           `json:"data,omitempty"`
}

// ExtensionFailure is one failed extension of a load pass.
type ExtensionFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ExtensionsHealth is the outcome of the last extension load pass.
// Failures keeps load order, one entry per failed attempt.
type ExtensionsHealth struct {
	Attempted int                `json:"attempted"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Skipped   int                `json:"skipped"`
	Failures  []ExtensionFailure `json:"failures,omitempty"`
}

// Health contains overall application health, service states and the outcome
// of the startup passes.
type Health struct {
	mu sync.RWMutex

	StartedAt  time.Time                 `json:"startedAt"`
	Services   map[string]*ServiceHealth `json:"services"`
	Migrations *database.Report          `json:"migrations,omitempty"`
	Extensions *ExtensionsHealth         `json:"extensions,omitempty"`
}

// NewHealth creates a Health with initialized storage.
func NewHealth() *Health {
	return &Health{Services: make(map[string]*ServiceHealth)}
}

// AddService registers a service in NOT_STARTED state.
func (h *Health) AddService(serviceName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Services[serviceName] = &ServiceHealth{Status: ServiceStatusNotStarted}
}

// Service returns a copy of the health of the named service.
func (h *Health) Service(serviceName string) (ServiceHealth, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	service, ok := h.Services[serviceName]
	if !ok {
		return ServiceHealth{}, false
	}
	return *service, true
}

// StartService marks the given service as started and stores start time.
func (h *Health) StartService(serviceName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if service, ok := h.Services[serviceName]; ok {
		service.Status = ServiceStatusStarted

		st := time.Now()
		service.StartedAt = &st
	}
}

// StopService marks the given service as stopped.
func (h *Health) StopService(serviceName string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if service, ok := h.Services[serviceName]; ok {
		service.Status = ServiceStatusStopped

		st := time.Now()
		service.StoppedAt = &st
	}
}

// FailService marks the given service as failed and stores the error.
func (h *Health) FailService(serviceName string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if service, ok := h.Services[serviceName]; ok {
		service.Status = ServiceStatusError

		st := time.Now()
		service.StoppedAt = &st

		service.Error = err.Error()
	}
}

// SetServiceData stores additional health payload for the given service.
func (h *Health) SetServiceData(serviceName string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if service, ok := h.Services[serviceName]; ok {
		service.Data = data
	}
}

// SetMigrations stores the report of the last migration pass.
func (h *Health) SetMigrations(report database.Report) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Migrations = &report
}

// SetExtensions stores the result of the last extension load pass.
func (h *Health) SetExtensions(result extension.Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ext := &ExtensionsHealth{
		Attempted: result.Attempted,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
	}
	for _, f := range result.Failures {
		ext.Failures = append(ext.Failures, ExtensionFailure{Name: f.Name, Error: f.Err.Error()})
	}

	h.Extensions = ext
}

// StartApplication marks application start time.
func (h *Health) StartApplication(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.StartedAt = at
}

// MarshalJSON encodes the health document under the read lock.
func (h *Health) MarshalJSON() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	type health Health
	return json.Marshal((*health)(h)) //nolint:wrapcheck
}

func (h *Health) String() string {
	b, _ := json.Marshal(h)
	return string(b)
}
