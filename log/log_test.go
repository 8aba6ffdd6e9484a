package log_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/platforma-dev/yatb/log"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, valid := range []string{"text", "json"} {
		if _, err := log.ParseFormat(valid); err != nil {
			t.Errorf("expected %q to be accepted, got %v", valid, err)
		}
	}

	for _, invalid := range []string{"", "JSON", "logfmt"} {
		if _, err := log.ParseFormat(invalid); err == nil {
			t.Errorf("expected %q to be rejected", invalid)
		}
	}
}

func TestAttribution(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		ctx  func(context.Context) context.Context
		want string
	}{
		{"migration", func(ctx context.Context) context.Context { return log.WithMigration(ctx, "0002_guilds.sql") }, "migration=0002_guilds.sql"},
		{"extension", func(ctx context.Context) context.Context { return log.WithExtension(ctx, "general") }, "extension=general"},
		{"command", func(ctx context.Context) context.Context { return log.WithCommand(ctx, "ping") }, "command=ping"},
		{"author", func(ctx context.Context) context.Context { return log.WithAuthor(ctx, "alice") }, "author=alice"},
		{"service", func(ctx context.Context) context.Context { return log.WithService(ctx, "console") }, "serviceName=console"},
		{"startup task", func(ctx context.Context) context.Context { return log.WithStartupTask(ctx, "warmup") }, "startupTask=warmup"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := log.New(&buf, log.FormatText, slog.LevelInfo)

			logger.InfoContext(tc.ctx(context.Background()), "attributed")

			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("expected %q in output, got: %s", tc.want, buf.String())
			}
		})
	}
}

func TestAttribution_CommandInvocation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf, log.FormatJSON, slog.LevelInfo)

	ctx := log.WithCommand(log.WithAuthor(context.Background(), "alice"), "ping")
	logger.WarnContext(ctx, "command failed", "kind", "Cooldown")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}

	for key, want := range map[string]string{"author": "alice", "command": "ping", "kind": "Cooldown", "msg": "command failed"} {
		if record[key] != want {
			t.Errorf("expected %s=%q, got %v", key, want, record[key])
		}
	}
}

func TestAttribution_EmptyAndForeignValuesIgnored(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf, log.FormatText, slog.LevelInfo)

	ctx := log.WithExtension(context.Background(), "")
	ctx = context.WithValue(ctx, log.MigrationKey, 3)

	logger.InfoContext(ctx, "nothing to attribute")

	if out := buf.String(); strings.Contains(out, "extension=") || strings.Contains(out, "migration=") {
		t.Errorf("expected no attribution, got: %s", out)
	}
}

func TestTraceIDPerPass(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf, log.FormatJSON, slog.LevelInfo)

	base := context.Background()
	for range 2 {
		pass := log.WithTraceID(base)
		logger.InfoContext(pass, "pass started")
		logger.InfoContext(log.WithMigration(pass, "0001_guilds.sql"), "migration applied")
	}

	var traceIDs []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("failed to decode %q: %v", line, err)
		}
		id, _ := record["traceId"].(string)
		traceIDs = append(traceIDs, id)
	}

	if len(traceIDs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(traceIDs))
	}
	if traceIDs[0] == "" || traceIDs[0] != traceIDs[1] {
		t.Errorf("expected records of one pass to share a trace ID, got %v", traceIDs[:2])
	}
	if traceIDs[2] != traceIDs[3] || traceIDs[0] == traceIDs[2] {
		t.Errorf("expected each pass to get its own trace ID, got %v", traceIDs)
	}
	if log.TraceIDFromContext(base) != "" {
		t.Error("expected parent context to stay without a trace ID")
	}
}

func TestDerivedLoggerKeepsAttribution(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf, log.FormatText, slog.LevelInfo).With("component", "migrator").WithGroup("pass")

	logger.InfoContext(log.WithMigration(context.Background(), "0003_guilds.sql"), "derived", "applied", 2)

	out := buf.String()
	for _, want := range []string{"component=migrator", "pass.applied=2", "migration=0003_guilds.sql"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got: %s", want, out)
		}
	}
}

func TestLevelFiltersDebug(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := log.New(&buf, log.FormatText, slog.LevelInfo)

	logger.DebugContext(context.Background(), "scheduled job started")
	if buf.Len() != 0 {
		t.Errorf("expected debug record to be dropped at INFO, got: %s", buf.String())
	}
}
