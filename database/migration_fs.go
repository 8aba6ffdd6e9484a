package database

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
)

// versionWidth is the number of leading digits that form a migration version.
const versionWidth = 4

// ParseMigrations reads SQL migration files from the root of an fs.FS.
// Only regular files with a .sql extension are considered. Each file name must
// start with a zero-padded 4-digit version (0001_init.sql); the rest of the name
// is free-form. The whole file content is the migration payload.
// Migrations are returned sorted by version. A malformed name, a duplicate
// version or an empty file fails the whole listing.
func ParseMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	seen := make(map[int]string)
	migrations := make([]Migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if path.Ext(entry.Name()) != ".sql" {
			continue
		}

		version, err := parseVersion(entry.Name())
		if err != nil {
			return nil, err
		}

		if other, ok := seen[version]; ok {
			return nil, fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateVersion, version, other, entry.Name())
		}
		seen[version] = entry.Name()

		up, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", entry.Name(), err)
		}

		payload := strings.TrimSpace(string(up))
		if payload == "" {
			return nil, fmt.Errorf("%w: %s", ErrEmptyMigration, entry.Name())
		}

		migrations = append(migrations, Migration{Version: version, ID: entry.Name(), Up: payload})
	}

	slices.SortFunc(migrations, func(a, b Migration) int {
		return a.Version - b.Version
	})

	return migrations, nil
}

func parseVersion(filename string) (int, error) {
	if len(filename) < versionWidth {
		return 0, fmt.Errorf("%w: %s", ErrMalformedVersion, filename)
	}

	prefix := filename[:versionWidth]
	for _, c := range prefix {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: %s", ErrMalformedVersion, filename)
		}
	}

	version, err := strconv.Atoi(prefix)
	if err != nil || version == 0 {
		return 0, fmt.Errorf("%w: %s", ErrMalformedVersion, filename)
	}

	return version, nil
}

// Pending returns the migrations with a version above sinceVersion, keeping their order.
func Pending(migrations []Migration, sinceVersion int) []Migration {
	pending := make([]Migration, 0, len(migrations))
	for _, migr := range migrations {
		if migr.Version > sinceVersion {
			pending = append(pending, migr)
		}
	}
	return pending
}

// FSSource discovers migrations in an fs.FS.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a Source reading migrations from fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// ListPending returns the migrations newer than sinceVersion in ascending order.
func (s *FSSource) ListPending(sinceVersion int) ([]Migration, error) {
	migrations, err := ParseMigrations(s.fsys)
	if err != nil {
		return nil, err
	}

	return Pending(migrations, sinceVersion), nil
}
