package device

import (
	"context"
	"time"
)

// Migration event roles.
const (
	MigrationRoleDonor     = "donor"
	MigrationRoleRecipient = "recipient"
)

// SnapshotRecord is one persisted load-table snapshot.
type SnapshotRecord struct {
	ID         int64     `json:"id"`
	NodeUUID   string    `json:"node_uuid"`
	NetGen     float64   `json:"net_gen_kw"`
	NetStorage float64   `json:"net_storage_kw"`
	NetLoad    float64   `json:"net_load_kw"`
	Gateway    float64   `json:"gateway_kw"`
	LoadState  string    `json:"load_state"`
	DemandKW   float64   `json:"demand_kw"`
	CreatedAt  time.Time `json:"created_at"`
}

// MigrationRecord is one persisted drafting outcome.
type MigrationRecord struct {
	ID          int64     `json:"id"`
	NodeUUID    string    `json:"node_uuid"`
	PeerUUID    string    `json:"peer_uuid"`
	Role        string    `json:"role"`
	RequestedKW float64   `json:"requested_kw"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryRepository stores the local audit trail of snapshots and migrations.
//
// This is an audit log, not recovery state: the drafting protocol carries
// no durable state across restarts. Implementations must be thread-safe
// and use UTC timestamps.
type HistoryRepository interface {
	// RecordSnapshot persists one per-tick load-table snapshot.
	RecordSnapshot(ctx context.Context, rec SnapshotRecord) error

	// RecordMigration persists one drafting outcome (donor or recipient side).
	RecordMigration(ctx context.Context, rec MigrationRecord) error

	// RecentSnapshots returns the newest snapshots, newest first.
	RecentSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error)

	// RecentMigrations returns the newest migration events, newest first.
	RecentMigrations(ctx context.Context, limit int) ([]MigrationRecord, error)
}
