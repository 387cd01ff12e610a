package balance

import (
	"context"
	"sync"
	"time"

	"github.com/voltmesh/microgrid-core/internal/device"
)

// Logger defines the logging interface used by the balance package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Telemetry is the interface the agent needs from the time-series client.
type Telemetry interface {
	WriteLoadTable(nodeUUID string, netGen, netStorage, netLoad, gateway float64, state string, demandKW float64)
	WriteDraftEvent(nodeUUID, peerUUID, step string, valueKW float64)
}

// History is the interface the agent needs from the local audit store.
type History interface {
	RecordSnapshot(ctx context.Context, rec device.SnapshotRecord) error
	RecordMigration(ctx context.Context, rec device.MigrationRecord) error
}

// Agent runs the distributed drafting protocol for one node.
//
// A periodic tick samples the device view, classifies the node as
// SUPPLY/DEMAND/NORMAL, and advertises changes; inbound protocol
// messages negotiate power migrations with remote peers. The drafting
// exchange follows Ni, Xu and Gendreau's distributed drafting algorithm:
// surplus nodes solicit, deficit nodes accept, the supplier confirms
// accepters. Every yes that arrives while the node is still in SUPPLY is
// confirmed; there is no limit of one accepter per round.
//
// The tick and every message handler are mutually serialized by the
// agent mutex: at most one of them runs at any instant. Rounds carry no
// identifier; a stalled round is superseded by the next tick's request.
type Agent struct {
	selfUUID   string
	tickPeriod time.Duration

	view      *View
	peers     *Registry
	transport Transport

	// state is mutated only under mu, by the tick and by handlers.
	state     LoadState
	prevState LoadState
	demandKW  float64

	logger    Logger
	telemetry Telemetry
	history   History

	// mu serializes the tick and the message handlers: at most one of
	// them runs at any instant.
	mu sync.Mutex
}

// NewAgent creates a drafting agent.
//
// The registry starts holding only the local node, classified NORMAL.
// Call Start to register the inbound handler and Run to drive the
// control loop.
//
// Parameters:
//   - selfUUID: This node's stable identity
//   - tickPeriod: Interval between control-loop iterations
//   - view: Device view over the node's physical devices
//   - transport: Broker binding for inbound routing and peer handles
//   - logger: Logger instance (may be nil)
func NewAgent(selfUUID string, tickPeriod time.Duration, view *View, transport Transport, logger Logger) *Agent {
	if logger == nil {
		logger = noopLogger{}
	}
	a := &Agent{
		selfUUID:   selfUUID,
		tickPeriod: tickPeriod,
		view:       view,
		peers:      NewRegistry(selfUUID),
		transport:  transport,
		state:      StateNormal,
		prevState:  StateNormal,
		logger:     logger,
	}
	return a
}

// SetTelemetry attaches a time-series client. Optional.
func (a *Agent) SetTelemetry(t Telemetry) { a.telemetry = t }

// SetHistory attaches the local audit store. Optional.
func (a *Agent) SetHistory(h History) { a.history = h }

// Peers exposes the registry for read-only consumers (state collection).
func (a *Agent) Peers() *Registry { return a.peers }

// State returns the current classification and demand magnitude.
func (a *Agent) State() (LoadState, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.demandKW
}

// Start registers the agent's inbound message handler with the transport.
func (a *Agent) Start() error {
	return a.transport.RegisterHandler(TagLB, a.HandleMessage)
}

// Run drives the control loop until the context is cancelled.
//
// The first iteration runs immediately; afterwards one iteration fires
// every tick period. Cancellation is a clean exit: in-flight handlers
// finish under the mutex and the timer is stopped.
func (a *Agent) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.tickPeriod)
	defer ticker.Stop()

	a.LoadManage(ctx)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("load balance loop stopped")
			return nil
		case <-ticker.C:
			a.LoadManage(ctx)
		}
	}
}

// LoadManage executes one control-loop iteration.
//
// It refreshes the device view, reclassifies the node, advertises the
// DEMAND state (every tick, so a lost broadcast heals), announces the
// return to NORMAL on that edge, and solicits drafts while in SUPPLY.
func (a *Agent) LoadManage(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap, err := a.view.Snapshot()
	if err != nil {
		// Stale snapshot is still usable; the next tick retries the read.
		a.logger.Error("device snapshot failed", "error", err)
	}

	a.prevState = a.state
	c := Classify(snap)
	a.state = c.State
	a.demandKW = c.DemandKW
	a.peers.Reclassify(a.selfUUID, a.state)

	a.logLoadTable(snap)
	if a.telemetry != nil {
		a.telemetry.WriteLoadTable(a.selfUUID, snap.NetGen, snap.NetStorage, snap.NetLoad,
			snap.Gateway, string(a.state), a.demandKW)
	}
	if a.history != nil {
		if histErr := a.history.RecordSnapshot(ctx, device.SnapshotRecord{
			NodeUUID:   a.selfUUID,
			NetGen:     snap.NetGen,
			NetStorage: snap.NetStorage,
			NetLoad:    snap.NetLoad,
			Gateway:    snap.Gateway,
			LoadState:  string(a.state),
			DemandKW:   a.demandKW,
		}); histErr != nil {
			a.logger.Error("recording snapshot failed", "error", histErr)
		}
	}

	switch {
	case a.state == StateDemand:
		// Rebroadcast on every DEMAND tick, not just the edge: peers that
		// missed an earlier broadcast converge on the next one.
		a.logger.Info("broadcasting load change", "state", a.state, "demand_kw", a.demandKW)
		a.broadcast(Message{Tag: TagLB, Type: TypeDemand, Source: a.selfUUID})

	case a.prevState != StateNormal && a.state == StateNormal:
		a.logger.Info("broadcasting load change", "from", a.prevState, "to", a.state)
		a.broadcast(Message{Tag: TagLB, Type: TypeNormal, Source: a.selfUUID})
	}

	if a.state == StateSupply {
		a.sendDraftRequest()
	}
}

// sendDraftRequest advertises willingness to share load to every peer.
// Caller must hold the agent mutex.
func (a *Agent) sendDraftRequest() {
	if a.state != StateSupply {
		return
	}
	a.logger.Info("sending draft request")
	a.broadcast(Message{Tag: TagLB, Type: TypeRequest, Source: a.selfUUID})
	if a.telemetry != nil {
		a.telemetry.WriteDraftEvent(a.selfUUID, "", TypeRequest, 0)
	}
}

// HandleMessage processes one inbound lb-tagged protocol message.
//
// Messages whose source matches the local UUID are silently ignored. A
// message from an unknown UUID first creates a registry entry for it.
func (a *Agent) HandleMessage(msg Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if msg.Source == a.selfUUID {
		return
	}

	// Unsolicited senders join the registry before their message is handled.
	a.peers.Upsert(msg.Source, a.transport.Peer(msg.Source))

	a.logger.Debug("message received", "type", msg.Type, "source", msg.Source)

	switch msg.Type {
	case TypePeerList:
		a.handlePeerList(msg)
	case TypeDemand:
		a.peers.Reclassify(msg.Source, StateDemand)
	case TypeNormal:
		a.peers.Reclassify(msg.Source, StateNormal)
	case TypeSupply:
		a.peers.Reclassify(msg.Source, StateSupply)
	case TypeRequest:
		a.handleRequest(msg)
	case TypeYes:
		a.handleYes(msg)
	case TypeNo:
		a.logger.Info("draft declined", "source", msg.Source)
	case TypeDrafting:
		a.handleDrafting(msg)
	case TypeAccept:
		a.handleAccept(msg)
	case TypeLoad:
		a.handleLoadQuery(msg)
	default:
		a.logger.Warn("dropping message", "type", msg.Type, "source", msg.Source,
			"error", ErrUnknownMessageType)
	}
}

// handlePeerList installs the roster sent by the group leader.
//
// Peers absent from the roster are evicted; new ones start NORMAL. The
// local node's entry is preserved and kept in step with the current
// classification.
func (a *Agent) handlePeerList(msg Message) {
	a.logger.Info("peer list received", "leader", msg.Source, "peers", msg.Peers)
	a.peers.ReplaceGroup(msg.Peers)
	for _, uuid := range msg.Peers {
		if uuid == a.selfUUID {
			continue
		}
		a.peers.Upsert(uuid, a.transport.Peer(uuid))
	}
	a.peers.Reclassify(a.selfUUID, a.state)
}

// handleRequest answers a supplier's solicitation: yes while in DEMAND,
// no otherwise. The sender must be a supplier, so it is reclassified.
func (a *Agent) handleRequest(msg Message) {
	a.logger.Info("draft request received", "source", msg.Source)
	a.peers.Reclassify(msg.Source, StateSupply)

	reply := Message{Tag: TagLB, Type: TypeNo, Source: a.selfUUID}
	if a.state == StateDemand {
		reply.Type = TypeYes
	}
	a.sendTo(msg.Source, reply)
	if a.telemetry != nil {
		a.telemetry.WriteDraftEvent(a.selfUUID, msg.Source, reply.Type, 0)
	}
}

// handleYes confirms drafting with the accepter, provided this node still
// has surplus. Each yes received in SUPPLY gets its own drafting reply, so
// several accepters can be confirmed. A late yes is dropped.
func (a *Agent) handleYes(msg Message) {
	if a.state != StateSupply {
		a.logger.Debug("dropping late yes", "source", msg.Source, "state", a.state)
		return
	}
	a.logger.Info("draft accepted by peer, confirming", "source", msg.Source)
	a.sendTo(msg.Source, Message{Tag: TagLB, Type: TypeDrafting, Source: a.selfUUID})
	if a.telemetry != nil {
		a.telemetry.WriteDraftEvent(a.selfUUID, msg.Source, TypeDrafting, 0)
	}
}

// handleDrafting acknowledges the supplier's confirmation with the
// current demand magnitude and switches the grid link to receive. A late
// drafting (no longer in DEMAND) is dropped.
func (a *Agent) handleDrafting(msg Message) {
	if a.state != StateDemand {
		a.logger.Debug("dropping late drafting", "source", msg.Source, "state", a.state)
		return
	}

	a.logger.Info("drafting confirmed, accepting", "source", msg.Source, "demand_kw", a.demandKW)
	a.sendTo(msg.Source, Message{
		Tag:    TagLB,
		Type:   TypeAccept,
		Source: a.selfUUID,
		Value:  a.demandKW,
	})

	if err := a.view.ActuateReceive(); err != nil {
		a.logger.Error("receive actuation failed", "error", err)
		return
	}
	a.recordMigration(msg.Source, device.MigrationRoleRecipient, a.demandKW)
}

// handleAccept performs the power migration for a demander this node
// drafted. Arriving while not in SUPPLY it is logged and dropped; the
// value is advisory either way.
func (a *Agent) handleAccept(msg Message) {
	if a.state != StateSupply {
		a.logger.Warn("unexpected accept message", "source", msg.Source, "state", a.state)
		return
	}

	a.logger.Info("migrating power", "source", msg.Source, "requested_kw", msg.Value)
	if err := a.view.ActuateDonate(); err != nil {
		a.logger.Error("donate actuation failed", "error", err)
		return
	}
	a.recordMigration(msg.Source, device.MigrationRoleDonor, msg.Value)
}

// handleLoadQuery answers state collection with the current load status
// on the sc tag.
func (a *Agent) handleLoadQuery(msg Message) {
	a.logger.Info("load state requested", "source", msg.Source)

	status := StateUnknown
	switch a.state {
	case StateSupply, StateDemand, StateNormal:
		status = a.state
	}

	a.sendTo(msg.Source, Message{
		Tag:    TagSC,
		Type:   TypeLoad,
		Source: a.selfUUID,
		Status: string(status),
	})
}

// recordMigration writes the drafting outcome to telemetry and the audit
// store. Caller must hold the agent mutex.
func (a *Agent) recordMigration(peerUUID, role string, valueKW float64) {
	if a.telemetry != nil {
		a.telemetry.WriteDraftEvent(a.selfUUID, peerUUID, TypeAccept, valueKW)
	}
	if a.history != nil {
		if err := a.history.RecordMigration(context.Background(), device.MigrationRecord{
			NodeUUID:    a.selfUUID,
			PeerUUID:    peerUUID,
			Role:        role,
			RequestedKW: valueKW,
		}); err != nil {
			a.logger.Error("recording migration failed", "error", err)
		}
	}
}

// broadcast sends the message to every registered peer except self.
// A send failure to one peer never aborts the sweep.
func (a *Agent) broadcast(msg Message) {
	for _, p := range a.peers.All() {
		if p.UUID == a.selfUUID {
			continue
		}
		a.sendTo(p.UUID, msg)
	}
}

// sendTo delivers a message to one peer, attaching a transport handle if
// the registry entry has none yet.
func (a *Agent) sendTo(uuid string, msg Message) {
	handle := a.peers.Handle(uuid)
	if handle == nil {
		handle = a.transport.Peer(uuid)
		a.peers.Upsert(uuid, handle)
	}
	if err := handle.Send(msg); err != nil {
		a.logger.Info("couldn't send message to peer", "peer", uuid, "type", msg.Type, "error", err)
	}
}

// logLoadTable logs the per-tick load table. Caller must hold the mutex.
func (a *Agent) logLoadTable(snap Snapshot) {
	a.logger.Debug("load table",
		"net_gen_kw", snap.NetGen,
		"drer_count", snap.DRERCount,
		"net_storage_kw", snap.NetStorage,
		"desd_count", snap.DESDCount,
		"net_load_kw", snap.NetLoad,
		"load_count", snap.LoadCount,
		"gateway_kw", snap.Gateway,
		"state", a.state,
		"demand_kw", a.demandKW,
	)
	for _, p := range a.peers.All() {
		a.logger.Debug("load table peer", "uuid", p.UUID, "state", p.State)
	}
}
