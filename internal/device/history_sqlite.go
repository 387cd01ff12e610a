package device

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	sqliteTimeLayout = "2006-01-02 15:04:05"
)

// SQLiteHistoryRepository implements HistoryRepository using SQLite.
//
// It writes to the load_snapshots and migration_events tables created by
// the embedded migrations.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a new SQLite history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteHistoryRepository: Repository instance ready for use
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// RecordSnapshot inserts one per-tick load-table snapshot.
func (r *SQLiteHistoryRepository) RecordSnapshot(ctx context.Context, rec SnapshotRecord) error {
	if rec.NodeUUID == "" {
		return fmt.Errorf("node uuid is required")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO load_snapshots
		 (node_uuid, net_gen_kw, net_storage_kw, net_load_kw, gateway_kw, load_state, demand_kw)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.NodeUUID, rec.NetGen, rec.NetStorage, rec.NetLoad, rec.Gateway, rec.LoadState, rec.DemandKW,
	)
	if err != nil {
		return fmt.Errorf("inserting load snapshot: %w", err)
	}
	return nil
}

// RecordMigration inserts one drafting outcome.
func (r *SQLiteHistoryRepository) RecordMigration(ctx context.Context, rec MigrationRecord) error {
	if rec.NodeUUID == "" || rec.PeerUUID == "" {
		return fmt.Errorf("node and peer uuids are required")
	}
	if rec.Role != MigrationRoleDonor && rec.Role != MigrationRoleRecipient {
		return fmt.Errorf("unknown migration role %q", rec.Role)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO migration_events (node_uuid, peer_uuid, role, requested_kw)
		 VALUES (?, ?, ?, ?)`,
		rec.NodeUUID, rec.PeerUUID, rec.Role, rec.RequestedKW,
	)
	if err != nil {
		return fmt.Errorf("inserting migration event: %w", err)
	}
	return nil
}

// RecentSnapshots returns the newest snapshots, newest first.
func (r *SQLiteHistoryRepository) RecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, node_uuid, net_gen_kw, net_storage_kw, net_load_kw, gateway_kw, load_state, demand_kw, created_at
		 FROM load_snapshots
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying load snapshots: %w", err)
	}
	defer rows.Close()

	entries := make([]SnapshotRecord, 0, limit)
	for rows.Next() {
		var rec SnapshotRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.NodeUUID, &rec.NetGen, &rec.NetStorage, &rec.NetLoad,
			&rec.Gateway, &rec.LoadState, &rec.DemandKW, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning load snapshot: %w", err)
		}
		rec.CreatedAt = parseSQLiteTime(createdAt)
		entries = append(entries, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating load snapshots: %w", err)
	}
	return entries, nil
}

// RecentMigrations returns the newest migration events, newest first.
func (r *SQLiteHistoryRepository) RecentMigrations(ctx context.Context, limit int) ([]MigrationRecord, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, node_uuid, peer_uuid, role, requested_kw, created_at
		 FROM migration_events
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying migration events: %w", err)
	}
	defer rows.Close()

	entries := make([]MigrationRecord, 0, limit)
	for rows.Next() {
		var rec MigrationRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.NodeUUID, &rec.PeerUUID, &rec.Role, &rec.RequestedKW, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning migration event: %w", err)
		}
		rec.CreatedAt = parseSQLiteTime(createdAt)
		entries = append(entries, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating migration events: %w", err)
	}
	return entries, nil
}

// clampLimit bounds a caller-provided limit to [1, maxHistoryLimit].
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		return maxHistoryLimit
	}
	return limit
}

// parseSQLiteTime parses SQLite's datetime('now') text format as UTC.
// A malformed timestamp yields the zero time rather than an error; the
// audit trail tolerates it.
func parseSQLiteTime(s string) time.Time {
	t, err := time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
