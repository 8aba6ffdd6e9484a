// Package extension loads named bot extensions with per-extension failure isolation.
package extension

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/platforma-dev/yatb/bot"
)

var (
	// ErrUnknownExtension is returned for names that were never registered.
	ErrUnknownExtension = errors.New("unknown extension")
	// ErrExtensionExists is returned when a name is registered twice.
	ErrExtensionExists = errors.New("extension already registered")
	// ErrExtensionPanicked wraps a panic recovered during setup.
	ErrExtensionPanicked = errors.New("extension panicked")
)

// Extension adds commands or handlers to a bot.
type Extension interface {
	Setup(ctx context.Context, b *bot.Bot) error
}

// Func adapts a function to Extension.
type Func func(ctx context.Context, b *bot.Bot) error

// Setup calls f.
func (f Func) Setup(ctx context.Context, b *bot.Bot) error {
	return f(ctx, b)
}

// Disabler is implemented by extensions that can be switched off.
type Disabler interface {
	Enabled() bool
}

type disabled struct {
	Extension
}

func (disabled) Enabled() bool { return false }

// Disabled marks ext so the loader skips it.
func Disabled(ext Extension) Extension {
	return disabled{ext}
}

// Registry maps extension names to extensions.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]Extension
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{extensions: make(map[string]Extension)}
}

// Register adds ext under name.
func (r *Registry) Register(name string, ext Extension) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.extensions[name]; ok {
		return fmt.Errorf("%w: %s", ErrExtensionExists, name)
	}
	r.extensions[name] = ext
	return nil
}

// Lookup returns the extension registered under name.
func (r *Registry) Lookup(name string) (Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext, ok := r.extensions[name]
	return ext, ok
}

// Names returns registered names in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.extensions))
	for name := range r.extensions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
