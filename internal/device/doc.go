// Package device models the physical devices attached to a microgrid node.
//
// A node owns a set of devices classified by their role in the power flow:
// DRERs generate, DESDs store, LOADs consume, DGs dispatch, and a single
// GRID device links the node to the main AC grid. The load-balancing agent
// reads all of them each tick and actuates only the grid link.
//
// # Key Types
//
//   - Device: read-and-actuate reference with a per-device lock
//   - Manager: thread-safe catalogue with stable iteration
//   - SimDevice: simulator-backed implementation used in production and tests
//   - HistoryRepository: SQLite-backed audit trail of snapshots and migrations
//
// # Grid-link semantics
//
// The external simulator's breaker setting is inverted: writing 0 opens the
// breaker (power flows), writing 1 closes it. Device.TurnOn and TurnOff
// express intent ("power flows" / "power stops") and hide the inversion.
package device
