package audit

import (
	"context"
	"database/sql"
	"testing"

	"github.com/akhawaja/medassist/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp failed: %v", err)
	}
	return db
}

func TestLogAndRecent(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestDB(t))
	ctx := context.Background()

	svc.Log(ctx, "side effects of ibuprofen", "drug_info", OutcomeAnswered, 4)
	svc.Log(ctx, "unknown thing", "general", OutcomeNoEvidence, 0)

	entries, err := svc.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.ID == "" {
			t.Error("entry missing ID")
		}
		if e.CreatedAt.IsZero() {
			t.Error("entry missing CreatedAt")
		}
	}
}

func TestLog_FailureIsSwallowed(t *testing.T) {
	t.Parallel()

	// No migration, so the table does not exist. Log must not panic or
	// surface the error.
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	defer db.Close() //nolint:errcheck

	svc := NewService(db)
	svc.Log(context.Background(), "q", "general", OutcomeAnswered, 1)
}
