package database

import (
	"context"
	"errors"
	"fmt"
)

// Migration is a single versioned schema change discovered by a Source.
type Migration struct {
	Version int
	ID      string
	Up      string
}

// Store records which migration versions have been applied and executes payloads.
type Store interface {
	// EnsureTable creates the tracking table if it does not exist yet.
	EnsureTable(ctx context.Context) error
	// HighestApplied returns the highest recorded version, or 0 when none are recorded.
	HighestApplied(ctx context.Context) (int, error)
	// RecordApplied durably marks version as applied.
	RecordApplied(ctx context.Context, version int) error
	// Apply executes a migration payload as one logical operation.
	Apply(ctx context.Context, payload string) error
}

// Source enumerates migrations newer than a given version.
type Source interface {
	ListPending(sinceVersion int) ([]Migration, error)
}

var (
	// ErrMalformedVersion is returned when a migration file name does not start with a 4-digit version.
	ErrMalformedVersion = errors.New("malformed migration version")
	// ErrDuplicateVersion is returned when two migration files share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")
	// ErrEmptyMigration is returned when a migration file has no statements.
	ErrEmptyMigration = errors.New("empty migration")
)

// State is the terminal state of a migration pass.
type State string

const (
	// StateDisabled means automigration was off and nothing was read or written.
	StateDisabled State = "DISABLED"
	// StateAborted means discovery failed and no migration was attempted.
	StateAborted State = "ABORTED"
	// StateCompleted means every pending migration was applied.
	StateCompleted State = "COMPLETED"
	// StateStopped means a migration failed and the rest of the pass was skipped.
	StateStopped State = "STOPPED"
)

// Phase names the step of a migration that failed.
type Phase string

const (
	// PhaseExecute is the payload execution step.
	PhaseExecute Phase = "execute"
	// PhaseRecord is the tracking table insert that follows a successful payload.
	PhaseRecord Phase = "record"
)

// MigrationError describes the migration that stopped a pass.
type MigrationError struct {
	Version int
	ID      string
	Phase   Phase
	err     error
}

// Error returns the formatted error message for MigrationError.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %s (version %d) failed to %s: %v", e.ID, e.Version, e.Phase, e.err)
}

// Unwrap returns the underlying error for MigrationError.
func (e *MigrationError) Unwrap() error {
	return e.err
}

// Report summarizes a migration pass.
type Report struct {
	State   State           `json:"state"`
	From    int             `json:"from"`
	Pending int             `json:"pending"`
	Applied []int           `json:"applied,omitempty"`
	Failure *MigrationError `json:"-"`
}

// Highest returns the highest version known to be applied after the pass.
func (r Report) Highest() int {
	if len(r.Applied) == 0 {
		return r.From
	}
	return r.Applied[len(r.Applied)-1]
}
