package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteLoadTable writes the per-tick load table point.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - nodeUUID: This node's identity
//   - netGen, netStorage, netLoad, gateway: Aggregates in kW
//   - state: The classification the tick produced (SUPPLY/DEMAND/NORMAL)
//   - demandKW: Demand magnitude, 0 unless state is DEMAND
func (c *Client) WriteLoadTable(nodeUUID string, netGen, netStorage, netLoad, gateway float64, state string, demandKW float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"load_table",
		map[string]string{
			"node":  nodeUUID,
			"state": state,
		},
		map[string]interface{}{
			"net_gen_kw":     netGen,
			"net_storage_kw": netStorage,
			"net_load_kw":    netLoad,
			"gateway_kw":     gateway,
			"demand_kw":      demandKW,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDraftEvent records a drafting protocol step.
//
// Parameters:
//   - nodeUUID: This node's identity
//   - peerUUID: The counterparty in the exchange
//   - step: Protocol step name (request, yes, no, drafting, accept)
//   - valueKW: Advisory kW carried by the step (0 when absent)
func (c *Client) WriteDraftEvent(nodeUUID, peerUUID, step string, valueKW float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"drafting",
		map[string]string{
			"node": nodeUUID,
			"peer": peerUUID,
			"step": step,
		},
		map[string]interface{}{
			"value_kw": valueKW,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePeerStatus records a peer's load status reported to state collection.
func (c *Client) WritePeerStatus(nodeUUID, peerUUID, status string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"peer_status",
		map[string]string{
			"node": nodeUUID,
			"peer": peerUUID,
		},
		map[string]interface{}{
			"status": status,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
