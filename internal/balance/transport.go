package balance

import (
	"fmt"

	"github.com/voltmesh/microgrid-core/internal/infrastructure/mqtt"
)

// Transport connects the agent to the message broker.
//
// The broker is an external collaborator: the agent only needs a way to
// register a per-tag inbound handler and to obtain send handles for peers.
type Transport interface {
	// RegisterHandler routes inbound messages carrying the tag to handler.
	RegisterHandler(tag string, handler func(Message)) error

	// Peer returns a send handle for the given node UUID.
	Peer(uuid string) PeerHandle
}

// MQTTTransport binds the protocol to the group's MQTT broker.
//
// Every node subscribes to its own unicast topic per tag
// (microgrid/node/{uuid}/{tag}); peers publish there. MQTT preserves
// per-publisher ordering at a given QoS, which is the FIFO assumption
// the protocol relies on.
type MQTTTransport struct {
	client   *mqtt.Client
	selfUUID string
	qos      byte
	logger   Logger
}

// NewMQTTTransport creates the broker binding for one node.
//
// Parameters:
//   - client: Connected MQTT client
//   - selfUUID: The local node's UUID (selects the inbound topics)
//   - qos: QoS level for protocol traffic
//   - logger: Logger for parse failures and send errors (may be nil)
func NewMQTTTransport(client *mqtt.Client, selfUUID string, qos byte, logger Logger) *MQTTTransport {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTTTransport{
		client:   client,
		selfUUID: selfUUID,
		qos:      qos,
		logger:   logger,
	}
}

// RegisterHandler subscribes to the local node's unicast topic for the tag.
//
// Malformed payloads are logged at WARN and dropped; they never reach the
// handler.
func (t *MQTTTransport) RegisterHandler(tag string, handler func(Message)) error {
	topic := mqtt.Topics{}.Node(t.selfUUID, tag)
	err := t.client.Subscribe(topic, t.qos, func(topic string, payload []byte) error {
		msg, decodeErr := DecodeMessage(tag, payload)
		if decodeErr != nil {
			t.logger.Warn("dropping malformed message",
				"topic", topic,
				"error", decodeErr,
			)
			return nil
		}
		handler(msg)
		return nil
	})
	if err != nil {
		return fmt.Errorf("subscribing to %q: %w", topic, err)
	}
	return nil
}

// Peer returns a send handle publishing to the peer's unicast topics.
func (t *MQTTTransport) Peer(uuid string) PeerHandle {
	return &mqttPeer{transport: t, uuid: uuid}
}

// mqttPeer publishes protocol messages to one remote node.
type mqttPeer struct {
	transport *MQTTTransport
	uuid      string
}

// Send encodes and publishes the message to the peer's topic for its tag.
func (p *mqttPeer) Send(msg Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	topic := mqtt.Topics{}.Node(p.uuid, msg.Tag)
	if err := p.transport.client.Publish(topic, data, p.transport.qos, false); err != nil {
		return fmt.Errorf("sending %s/%s to %q: %w", msg.Tag, msg.Type, p.uuid, err)
	}
	return nil
}
