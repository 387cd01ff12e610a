// Package influxdb provides InfluxDB connectivity for the microgrid agent.
//
// It wraps the official influxdb-client-go v2 library with agent-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Per-tick load table snapshots (generation, storage, load, gateway flow)
//   - Drafting protocol events (request/yes/drafting/accept, advisory kW)
//   - Peer load statuses gathered by state collection
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are surfaced via a
// callback. Connection and health check errors are returned directly.
package influxdb
