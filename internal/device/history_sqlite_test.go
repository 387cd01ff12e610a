package device

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// openHistoryDB creates an in-memory database with the audit schema.
func openHistoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE load_snapshots (
	    id INTEGER PRIMARY KEY AUTOINCREMENT,
	    node_uuid TEXT NOT NULL,
	    net_gen_kw REAL NOT NULL,
	    net_storage_kw REAL NOT NULL,
	    net_load_kw REAL NOT NULL,
	    gateway_kw REAL NOT NULL,
	    load_state TEXT NOT NULL,
	    demand_kw REAL NOT NULL DEFAULT 0,
	    created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	CREATE TABLE migration_events (
	    id INTEGER PRIMARY KEY AUTOINCREMENT,
	    node_uuid TEXT NOT NULL,
	    peer_uuid TEXT NOT NULL,
	    role TEXT NOT NULL CHECK (role IN ('donor', 'recipient')),
	    requested_kw REAL NOT NULL DEFAULT 0,
	    created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestSQLiteHistory_Snapshots(t *testing.T) {
	repo := NewSQLiteHistoryRepository(openHistoryDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := repo.RecordSnapshot(ctx, SnapshotRecord{
			NodeUUID:  "node-a",
			NetGen:    float64(i),
			NetLoad:   5,
			LoadState: "DEMAND",
			DemandKW:  5 - float64(i),
		})
		if err != nil {
			t.Fatalf("RecordSnapshot() error = %v", err)
		}
	}

	entries, err := repo.RecentSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("RecentSnapshots() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	// Newest first.
	if entries[0].NetGen != 2 {
		t.Errorf("entries[0].NetGen = %v, want 2", entries[0].NetGen)
	}
	if entries[0].NodeUUID != "node-a" || entries[0].LoadState != "DEMAND" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestSQLiteHistory_SnapshotRequiresNode(t *testing.T) {
	repo := NewSQLiteHistoryRepository(openHistoryDB(t))

	if err := repo.RecordSnapshot(context.Background(), SnapshotRecord{}); err == nil {
		t.Error("RecordSnapshot() without node uuid expected error")
	}
}

func TestSQLiteHistory_Migrations(t *testing.T) {
	repo := NewSQLiteHistoryRepository(openHistoryDB(t))
	ctx := context.Background()

	err := repo.RecordMigration(ctx, MigrationRecord{
		NodeUUID:    "node-a",
		PeerUUID:    "node-b",
		Role:        MigrationRoleDonor,
		RequestedKW: 3,
	})
	if err != nil {
		t.Fatalf("RecordMigration() error = %v", err)
	}

	entries, err := repo.RecentMigrations(ctx, 0)
	if err != nil {
		t.Fatalf("RecentMigrations() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.PeerUUID != "node-b" || got.Role != MigrationRoleDonor || got.RequestedKW != 3 {
		t.Errorf("entry = %+v", got)
	}
}

func TestSQLiteHistory_MigrationRejectsBadRole(t *testing.T) {
	repo := NewSQLiteHistoryRepository(openHistoryDB(t))

	err := repo.RecordMigration(context.Background(), MigrationRecord{
		NodeUUID: "node-a",
		PeerUUID: "node-b",
		Role:     "bystander",
	})
	if err == nil {
		t.Error("RecordMigration() with bad role expected error")
	}
}
