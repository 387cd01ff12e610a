package balance

import (
	"fmt"
	"math"

	"github.com/voltmesh/microgrid-core/internal/device"
)

// Snapshot is the device view's per-tick aggregate, all values in kW.
//
// Gateway is the signed power of the grid-link device: positive when the
// node is donating to the main grid, negative when receiving.
type Snapshot struct {
	NetGen     float64
	NetStorage float64
	NetLoad    float64
	Gateway    float64

	// Device counts per class, for the load table log.
	DRERCount int
	DESDCount int
	LoadCount int
}

// View is the read-only projection over the node's registered devices.
//
// Snapshot sums power readings into per-class aggregates and reads the
// gateway flow. On any read failure the previous snapshot is returned
// unchanged so one bad tick cannot flip the classification; the error
// tells the caller to log and retry next tick.
//
// View is driven only from the agent's serialized tick, so it keeps no
// lock of its own.
type View struct {
	devices   *device.Manager
	gatewayID string
	unitScale float64

	prev Snapshot
}

// NewView creates a device view.
//
// Parameters:
//   - devices: The node's device manager
//   - gatewayID: ID of the grid-link device supplying the gateway flow
//   - unitScale: Multiplier from raw readings to kW
func NewView(devices *device.Manager, gatewayID string, unitScale float64) *View {
	return &View{
		devices:   devices,
		gatewayID: gatewayID,
		unitScale: unitScale,
	}
}

// milli is the precision divisor for gateway truncation.
const milli = 1000

// truncateMilli truncates a kW value to millikilowatt precision toward
// zero: positive values are floored, negative values are ceiled. This
// keeps simulator noise at the boundary from oscillating classification.
func truncateMilli(v float64) float64 {
	if v > 0 {
		return math.Floor(v*milli) / milli
	}
	return math.Ceil(v*milli) / milli
}

// Snapshot aggregates the current device readings.
//
// Returns:
//   - Snapshot: Fresh aggregates, or the previous snapshot on failure
//   - error: nil on success; on failure the reason, with the previous
//     snapshot still returned as the usable value
func (v *View) Snapshot() (Snapshot, error) {
	gw, err := v.devices.Get(v.gatewayID)
	if err != nil {
		return v.prev, fmt.Errorf("%w: %q", ErrNoGateway, v.gatewayID)
	}

	var s Snapshot
	for _, d := range v.devices.Iterate() {
		level, readErr := d.PowerLevel()
		if readErr != nil {
			return v.prev, fmt.Errorf("reading device %q: %w", d.ID(), readErr)
		}
		switch d.Type() {
		case device.TypeDRER:
			s.NetGen += level
			s.DRERCount++
		case device.TypeDESD:
			s.NetStorage += level
			s.DESDCount++
		case device.TypeLoad:
			s.NetLoad += level
			s.LoadCount++
		}
	}

	// Aggregates are scaled to kW; the gateway reading is already kW on
	// the wire from the simulator and only needs noise truncation.
	s.NetGen *= v.unitScale
	s.NetStorage *= v.unitScale
	s.NetLoad *= v.unitScale

	flow, err := gw.PowerLevel()
	if err != nil {
		return v.prev, fmt.Errorf("reading gateway %q: %w", v.gatewayID, err)
	}
	s.Gateway = truncateMilli(flow)

	v.prev = s
	return s, nil
}

// ActuateDonate opens the grid-link breaker so surplus power flows
// outward to the main grid. Idempotent within a drafting round.
func (v *View) ActuateDonate() error {
	return v.actuateGateway()
}

// ActuateReceive opens the grid-link breaker from the receiving side;
// the simulator treats inbound flow symmetrically. Idempotent.
func (v *View) ActuateReceive() error {
	return v.actuateGateway()
}

// actuateGateway turns the grid link on while holding its device lock.
func (v *View) actuateGateway() error {
	gw, err := v.devices.Get(v.gatewayID)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrNoGateway, v.gatewayID)
	}

	gw.Lock()
	defer gw.Unlock()

	if err := gw.TurnOn(); err != nil {
		return fmt.Errorf("actuating gateway %q: %w", v.gatewayID, err)
	}
	return nil
}
