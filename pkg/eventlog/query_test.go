package eventlog //nolint:testpackage // white-box test needs internal access

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pulse/pkg/protocol"
)

// seedDB creates a database with the hub schema and a few event rows.
func seedDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "pulse.db")
	db, err := sql.Open("sqlite", "file:"+dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close() //nolint:errcheck // test setup

	if _, err := db.Exec(protocol.SchemaDDL); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	rows := []struct {
		kind, entity, session, payload, createdAt string
	}{
		{"execution", "e1", "s1", `{"kind":"execution"}`, "2026-08-01 10:00:00"},
		{"execution", "e2", "s1", `{"kind":"execution"}`, "2026-08-01 10:05:00"},
		{"processing", "f1", "s1", `{"kind":"processing"}`, "2026-08-01 10:10:00"},
		{"health", "", "s2", `{"kind":"health"}`, "2026-08-01 11:00:00"},
	}
	for _, r := range rows {
		_, err := db.Exec(
			"INSERT INTO events (kind, entity_id, session_id, payload, created_at) VALUES (?, ?, ?, ?, ?)",
			r.kind, r.entity, r.session, r.payload, r.createdAt)
		if err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}
	return dbPath
}

func TestReaderMissingDatabase(t *testing.T) {
	t.Parallel()

	_, err := NewReader(filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestQueryAllNewestFirst(t *testing.T) {
	t.Parallel()

	r, err := NewReader(seedDB(t))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close() //nolint:errcheck // test cleanup

	events, err := r.Query(context.Background(), QueryOpts{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].ID > events[i-1].ID {
			t.Fatal("events not ordered newest first")
		}
	}
	if events[0].Kind != protocol.KindHealth {
		t.Errorf("newest event kind = %q", events[0].Kind)
	}
}

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	r, err := NewReader(seedDB(t))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()

	byKind, err := r.Query(ctx, QueryOpts{Kind: protocol.KindExecution})
	if err != nil {
		t.Fatalf("Query by kind: %v", err)
	}
	if len(byKind) != 2 {
		t.Errorf("kind filter: got %d, want 2", len(byKind))
	}

	byEntity, err := r.Query(ctx, QueryOpts{EntityID: "e1"})
	if err != nil {
		t.Fatalf("Query by entity: %v", err)
	}
	if len(byEntity) != 1 || byEntity[0].EntityID != "e1" {
		t.Errorf("entity filter: %+v", byEntity)
	}

	bySession, err := r.Query(ctx, QueryOpts{SessionID: "s2"})
	if err != nil {
		t.Fatalf("Query by session: %v", err)
	}
	if len(bySession) != 1 || bySession[0].Kind != protocol.KindHealth {
		t.Errorf("session filter: %+v", bySession)
	}

	limited, err := r.Query(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("Query with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d, want 2", len(limited))
	}
}

func TestQueryTimeWindow(t *testing.T) {
	t.Parallel()

	r, err := NewReader(seedDB(t))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close() //nolint:errcheck // test cleanup

	after := time.Date(2026, 8, 1, 10, 5, 0, 0, time.UTC)
	before := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	events, err := r.Query(context.Background(), QueryOpts{After: &after, Before: &before})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events in window, want 2", len(events))
	}
	for _, e := range events {
		if e.CreatedAt.Before(after) || e.CreatedAt.After(before) {
			t.Errorf("event %d at %v outside window", e.ID, e.CreatedAt)
		}
	}
}

func TestBuildQueryComposesConditions(t *testing.T) {
	t.Parallel()

	after := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	query, args := buildQuery(QueryOpts{
		Kind:     protocol.KindExecution,
		EntityID: "e1",
		After:    &after,
		Limit:    5,
	})

	for _, want := range []string{"kind = ?", "entity_id = ?", "created_at >= ?", "ORDER BY id DESC", "LIMIT 5"} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q: %s", want, query)
		}
	}
	if len(args) != 3 {
		t.Errorf("args = %v, want 3 values", args)
	}
}
