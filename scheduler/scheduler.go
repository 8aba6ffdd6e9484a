// Package scheduler runs periodic jobs such as pool statistics reporting.
package scheduler

import (
	"context"
	"fmt"
	"time"

	cron "github.com/pardnchiu/go-scheduler"

	"github.com/platforma-dev/yatb/application"
	"github.com/platforma-dev/yatb/log"
)

// Scheduler runs a job on a cron schedule until its context is cancelled.
type Scheduler struct {
	name     string
	cronExpr string
	runner   application.Runner
}

// New creates a Scheduler for the named job.
//
// Supported cron formats:
//   - Standard 5-field cron: "minute hour day month weekday" (e.g., "0 9 * * MON-FRI")
//   - Descriptors: @yearly, @monthly, @weekly, @daily, @hourly
//   - Intervals: @every 5m, @every 30s
//
// Returns an error if the cron expression is invalid.
func New(name, cronExpr string, runner application.Runner) (*Scheduler, error) {
	// the library panics on an empty expression
	if cronExpr == "" {
		return nil, fmt.Errorf("invalid cron expression %q: expression cannot be empty", cronExpr)
	}

	validator, err := cron.New(cron.Config{Location: time.UTC})
	if err != nil {
		return nil, fmt.Errorf("failed to create cron validator: %w", err)
	}

	_, err = validator.Add(cronExpr, func() {})
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	return &Scheduler{name: name, cronExpr: cronExpr, runner: runner}, nil
}

// Run starts the schedule. Each run gets its own trace ID; a failing run is
// logged and does not stop later ones.
func (s *Scheduler) Run(ctx context.Context) error {
	cronScheduler, err := cron.New(cron.Config{Location: time.UTC})
	if err != nil {
		return fmt.Errorf("failed to create cron scheduler: %w", err)
	}

	_, err = cronScheduler.Add(s.cronExpr, func() error {
		runCtx := log.WithTraceID(ctx)
		log.DebugContext(runCtx, "scheduled job started", "job", s.name)

		err := s.runner.Run(runCtx)
		if err != nil {
			log.ErrorContext(runCtx, "scheduled job failed", "job", s.name, "error", err)
			return err
		}

		log.DebugContext(runCtx, "scheduled job finished", "job", s.name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add cron task: %w", err)
	}

	cronScheduler.Start()

	<-ctx.Done()

	stopCtx := cronScheduler.Stop()
	<-stopCtx.Done()

	return fmt.Errorf("scheduler %s stopped: %w", s.name, ctx.Err())
}
