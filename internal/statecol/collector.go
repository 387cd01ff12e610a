package statecol

import (
	"context"
	"sync"
	"time"

	"github.com/voltmesh/microgrid-core/internal/balance"
)

// Logger defines the logging interface used by the collector.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Telemetry is the interface the collector needs from the time-series client.
type Telemetry interface {
	WritePeerStatus(nodeUUID, peerUUID, status string)
}

// Collector polls the group for load statuses.
//
// Every sweep it sends a load query to each registered peer; the peers'
// load-balancing modules reply on the sc tag with their current status.
// The latest status per peer is kept in memory and optionally written to
// telemetry. Peers that never answer simply stay absent from the roster;
// there is no timeout bookkeeping.
type Collector struct {
	selfUUID  string
	interval  time.Duration
	peers     *balance.Registry
	transport balance.Transport
	logger    Logger
	telemetry Telemetry

	mu       sync.RWMutex
	statuses map[string]string
}

// NewCollector creates a state collector.
//
// Parameters:
//   - selfUUID: This node's identity (stamped on outbound queries)
//   - interval: Time between sweeps
//   - peers: The agent's registry, read for the current roster
//   - transport: Broker binding shared with the agent
//   - logger: Logger instance (may be nil)
func NewCollector(selfUUID string, interval time.Duration, peers *balance.Registry, transport balance.Transport, logger Logger) *Collector {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Collector{
		selfUUID:  selfUUID,
		interval:  interval,
		peers:     peers,
		transport: transport,
		logger:    logger,
		statuses:  make(map[string]string),
	}
}

// SetTelemetry attaches a time-series client. Optional.
func (c *Collector) SetTelemetry(t Telemetry) { c.telemetry = t }

// Start registers the sc reply handler with the transport.
func (c *Collector) Start() error {
	return c.transport.RegisterHandler(balance.TagSC, c.HandleReply)
}

// Run sweeps the group until the context is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Sweep()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("state collection stopped")
			return nil
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep sends one load query to every registered peer.
func (c *Collector) Sweep() {
	query := balance.Message{
		Tag:    balance.TagLB,
		Type:   balance.TypeLoad,
		Source: c.selfUUID,
	}
	for _, p := range c.peers.All() {
		if p.UUID == c.selfUUID {
			continue
		}
		if err := c.transport.Peer(p.UUID).Send(query); err != nil {
			c.logger.Info("couldn't query peer load state", "peer", p.UUID, "error", err)
		}
	}
}

// HandleReply records one sc-tagged status reply.
func (c *Collector) HandleReply(msg balance.Message) {
	if msg.Source == c.selfUUID || msg.Status == "" {
		return
	}

	c.logger.Debug("peer load status", "peer", msg.Source, "status", msg.Status)

	c.mu.Lock()
	c.statuses[msg.Source] = msg.Status
	c.mu.Unlock()

	if c.telemetry != nil {
		c.telemetry.WritePeerStatus(c.selfUUID, msg.Source, msg.Status)
	}
}

// Statuses returns a copy of the latest status per peer.
func (c *Collector) Statuses() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}
