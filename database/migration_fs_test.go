package database_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/platforma-dev/yatb/database"
)

func versions(migrations []database.Migration) []int {
	out := make([]int, 0, len(migrations))
	for _, m := range migrations {
		out = append(out, m.Version)
	}
	return out
}

func TestParseMigrations(t *testing.T) {
	t.Parallel()

	t.Run("parses version, id and payload", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"0001_init.sql": &fstest.MapFile{Data: []byte("\nCREATE TABLE migrations (id INTEGER PRIMARY KEY);\n\n")},
		}

		migrations, err := database.ParseMigrations(fsys)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []database.Migration{
			{Version: 1, ID: "0001_init.sql", Up: "CREATE TABLE migrations (id INTEGER PRIMARY KEY);"},
		}
		if diff := cmp.Diff(want, migrations); diff != "" {
			t.Errorf("migrations mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("sorts by numeric version", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"0010_tenth.sql":  &fstest.MapFile{Data: []byte("TENTH")},
			"0002_second.sql": &fstest.MapFile{Data: []byte("SECOND")},
			"0001_first.sql":  &fstest.MapFile{Data: []byte("FIRST")},
			"0003.sql":        &fstest.MapFile{Data: []byte("THIRD")},
		}

		migrations, err := database.ParseMigrations(fsys)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if diff := cmp.Diff([]int{1, 2, 3, 10}, versions(migrations)); diff != "" {
			t.Errorf("versions mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("ignores non-sql files and directories", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"0001_init.sql":        &fstest.MapFile{Data: []byte("CREATE TABLE users (id INT);")},
			"readme.txt":           &fstest.MapFile{Data: []byte("This is a readme")},
			"archive/0002_old.sql": &fstest.MapFile{Data: []byte("OLD")},
		}

		migrations, err := database.ParseMigrations(fsys)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(migrations) != 1 {
			t.Fatalf("expected 1 migration, got %d", len(migrations))
		}
	})

	t.Run("handles empty filesystem", func(t *testing.T) {
		t.Parallel()

		migrations, err := database.ParseMigrations(fstest.MapFS{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(migrations) != 0 {
			t.Fatalf("expected 0 migrations, got %d", len(migrations))
		}
	})

	t.Run("errors on malformed version", func(t *testing.T) {
		t.Parallel()

		for _, name := range []string{"init.sql", "01.sql", "00a1_init.sql", "0000_zero.sql", "-001_neg.sql"} {
			fsys := fstest.MapFS{
				"0001_init.sql": &fstest.MapFile{Data: []byte("CREATE TABLE users (id INT);")},
				name:            &fstest.MapFile{Data: []byte("SELECT 1;")},
			}

			_, err := database.ParseMigrations(fsys)
			if !errors.Is(err, database.ErrMalformedVersion) {
				t.Errorf("expected ErrMalformedVersion for %q, got: %v", name, err)
			}
		}
	})

	t.Run("errors on duplicate version", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"0001_init.sql":  &fstest.MapFile{Data: []byte("CREATE TABLE users (id INT);")},
			"0001_other.sql": &fstest.MapFile{Data: []byte("CREATE TABLE guilds (id INT);")},
		}

		_, err := database.ParseMigrations(fsys)
		if !errors.Is(err, database.ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got: %v", err)
		}
	})

	t.Run("errors on empty migration", func(t *testing.T) {
		t.Parallel()

		fsys := fstest.MapFS{
			"0001_init.sql": &fstest.MapFile{Data: []byte("  \n\t\n")},
		}

		_, err := database.ParseMigrations(fsys)
		if !errors.Is(err, database.ErrEmptyMigration) {
			t.Fatalf("expected ErrEmptyMigration, got: %v", err)
		}
	})
}

func TestFSSourceListPending(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"0004_roles.sql":    &fstest.MapFile{Data: []byte("FOUR")},
		"0001_init.sql":     &fstest.MapFile{Data: []byte("ONE")},
		"0003_guilds.sql":   &fstest.MapFile{Data: []byte("THREE")},
		"0002_prefixes.sql": &fstest.MapFile{Data: []byte("TWO")},
	}
	source := database.NewFSSource(fsys)

	testCases := []struct {
		name  string
		since int
		want  []int
	}{
		{"nothing applied", 0, []int{1, 2, 3, 4}},
		{"prefix applied", 2, []int{3, 4}},
		{"all applied", 4, []int{}},
		{"store ahead of source", 9, []int{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			pending, err := source.ListPending(tc.since)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tc.want, versions(pending)); diff != "" {
				t.Errorf("pending mismatch (-want +got):\n%s", diff)
			}

			again, err := source.ListPending(tc.since)
			if err != nil {
				t.Fatalf("unexpected error on second listing: %v", err)
			}

			if diff := cmp.Diff(pending, again); diff != "" {
				t.Errorf("listing is not deterministic (-first +second):\n%s", diff)
			}
		})
	}

	t.Run("malformed name fails even with valid migrations", func(t *testing.T) {
		t.Parallel()

		broken := database.NewFSSource(fstest.MapFS{
			"0001_init.sql":  &fstest.MapFile{Data: []byte("ONE")},
			"abcd_oops.sql":  &fstest.MapFile{Data: []byte("TWO")},
			"0003_later.sql": &fstest.MapFile{Data: []byte("THREE")},
		})

		pending, err := broken.ListPending(0)
		if !errors.Is(err, database.ErrMalformedVersion) {
			t.Fatalf("expected ErrMalformedVersion, got: %v", err)
		}
		if pending != nil {
			t.Fatalf("expected no migrations, got %d", len(pending))
		}
	})
}
