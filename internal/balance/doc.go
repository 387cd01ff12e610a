// Package balance implements the distributed load-balancing agent of a
// microgrid node.
//
// Each physical node runs one Agent. Agents coordinate peer-to-peer to
// transfer surplus generation toward nodes whose load exceeds local
// generation, using the classical distributed drafting protocol
// (Ni, Xu, Gendreau, 1985).
//
// # Components
//
//   - View: read-only projection over the node's devices (net generation,
//     storage, load, gateway flow) plus the grid-link migration actuators
//   - Classify: pure function from a snapshot to SUPPLY/DEMAND/NORMAL
//   - Registry: known peers, each in exactly one classification bucket
//   - Agent: the periodic control loop and the drafting state machine
//   - Transport / MQTTTransport: dispatcher and peer handles over the broker
//
// # A drafting round (supplier perspective)
//
//	SUPPLY ──tick──▶ broadcast request ──▶ await yes/no
//	                       first yes from P → send drafting to P
//	                       on accept{v}     → actuate donate
//
// The demander mirrors it: on request reply yes; on drafting reply
// accept with the current demand magnitude and actuate receive.
//
// Rounds carry no identifier and no timeout: they are distinguished only
// by the supplier's current classification, and a stalled round is
// superseded by the next tick's request. Best-effort balancing, not
// exactly-once migration accounting.
//
// # Concurrency
//
// A single mutex serializes the tick and every inbound handler, so all
// classification and registry updates happen one at a time per agent.
// Only tick waits, peer sends, and device reads may block.
package balance
