package database

import (
	"context"
	"fmt"

	"github.com/platforma-dev/yatb/log"
)

// Migrator applies pending migrations from a Source to a Store, one at a time,
// in ascending version order. The first failure stops the pass.
type Migrator struct {
	store   Store
	source  Source
	enabled bool
}

// NewMigrator creates a Migrator. When enabled is false, Migrate is a no-op.
func NewMigrator(store Store, source Source, enabled bool) *Migrator {
	return &Migrator{store: store, source: source, enabled: enabled}
}

// Migrate runs a migration pass if automigration is enabled.
// A disabled Migrator touches neither the Store nor the Source.
func (m *Migrator) Migrate(ctx context.Context) (Report, error) {
	if !m.enabled {
		log.InfoContext(ctx, "automigration is disabled, skipping migration pass")
		return Report{State: StateDisabled}, nil
	}

	return m.run(ctx)
}

// MigrateForce runs a migration pass regardless of the enable flag.
func (m *Migrator) MigrateForce(ctx context.Context) (Report, error) {
	return m.run(ctx)
}

func (m *Migrator) run(ctx context.Context) (Report, error) {
	ctx = log.WithTraceID(ctx)

	err := m.store.EnsureTable(ctx)
	if err != nil {
		log.WarnContext(ctx, "could not create migration tracking table", "error", err)
	}

	from, err := m.store.HighestApplied(ctx)
	if err != nil {
		log.WarnContext(ctx, "could not read applied migrations, assuming none", "error", err)
		from = 0
	}

	report := Report{From: from}

	pending, err := m.source.ListPending(from)
	if err != nil {
		log.ErrorContext(ctx, "migration discovery failed, nothing applied", "error", err)
		report.State = StateAborted
		return report, fmt.Errorf("failed to discover migrations: %w", err)
	}

	report.Pending = len(pending)

	if len(pending) == 0 {
		log.InfoContext(ctx, "no pending migrations", "version", from)
		report.State = StateCompleted
		return report, nil
	}

	log.InfoContext(ctx, "running migration pass", "from", from, "pending", len(pending))

	for _, migr := range pending {
		migrCtx := log.WithMigration(ctx, migr.ID)

		log.InfoContext(migrCtx, "running migration", "version", migr.Version)

		migrErr := m.apply(migrCtx, migr)
		if migrErr != nil {
			log.ErrorContext(migrCtx, "migration failed", "version", migr.Version, "phase", migrErr.Phase, "error", migrErr.Unwrap())

			report.State = StateStopped
			report.Failure = migrErr

			log.WarnContext(ctx, "migration pass stopped",
				"applied", len(report.Applied),
				"failed", migr.ID,
				"skipped", len(pending)-len(report.Applied)-1,
				"version", report.Highest(),
			)

			return report, migrErr
		}

		report.Applied = append(report.Applied, migr.Version)
		log.InfoContext(migrCtx, "migration applied", "version", migr.Version)
	}

	report.State = StateCompleted
	log.InfoContext(ctx, "migration pass finished", "applied", len(report.Applied), "version", report.Highest())

	return report, nil
}

// apply executes the payload and then records the version.
// A failed record after a successful payload is still a failed migration.
func (m *Migrator) apply(ctx context.Context, migr Migration) *MigrationError {
	err := m.store.Apply(ctx, migr.Up)
	if err != nil {
		return &MigrationError{Version: migr.Version, ID: migr.ID, Phase: PhaseExecute, err: err}
	}

	err = m.store.RecordApplied(ctx, migr.Version)
	if err != nil {
		return &MigrationError{Version: migr.Version, ID: migr.ID, Phase: PhaseRecord, err: err}
	}

	return nil
}
