package extension

import (
	"context"
	"fmt"

	"github.com/platforma-dev/yatb/bot"
	"github.com/platforma-dev/yatb/log"
)

// Failure records one extension that could not be loaded.
type Failure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// Result tallies a load pass. Attempted == Succeeded + Failed + Skipped.
type Result struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Loader sets up extensions from a Registry on a bot.
type Loader struct {
	registry *Registry
	bot      *bot.Bot
}

// NewLoader creates a Loader for b.
func NewLoader(registry *Registry, b *bot.Bot) *Loader {
	return &Loader{registry: registry, bot: b}
}

// Load sets up each named extension in order. A failing, panicking or unknown
// extension is logged and counted; it never stops the remaining ones.
func (l *Loader) Load(ctx context.Context, names ...string) Result {
	ctx = log.WithTraceID(ctx)

	log.InfoContext(ctx, "loading extensions", "count", len(names))

	var result Result
	for _, name := range names {
		extCtx := log.WithExtension(ctx, name)
		result.Attempted++

		loaded, err := l.loadOne(extCtx, name)
		switch {
		case err != nil:
			result.Failed++
			result.Failures = append(result.Failures, Failure{Name: name, Err: err})
			log.ErrorContext(extCtx, "error while loading extension", "error", err)
		case !loaded:
			result.Skipped++
			log.InfoContext(extCtx, "extension is disabled, skipping")
		default:
			result.Succeeded++
			log.InfoContext(extCtx, "extension loaded")
		}
	}

	log.InfoContext(ctx, "extension loading finished",
		"success", result.Succeeded,
		"failed", result.Failed,
		"skipped", result.Skipped,
	)

	return result
}

func (l *Loader) loadOne(ctx context.Context, name string) (loaded bool, err error) {
	ext, ok := l.registry.Lookup(name)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownExtension, name)
	}

	if d, ok := ext.(Disabler); ok && !d.Enabled() {
		return false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			loaded = false
			err = fmt.Errorf("%w: %v", ErrExtensionPanicked, r)
		}
	}()

	err = ext.Setup(ctx, l.bot)
	if err != nil {
		return false, fmt.Errorf("failed to set up extension %s: %w", name, err)
	}

	return true, nil
}
