// Package mqtt provides MQTT client connectivity for the microgrid agent.
//
// This package manages:
//   - Connection to the group broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The broker is the transport assumed by the drafting protocol: every node
// subscribes to its own unicast topic and peers publish protocol messages
// to it. The broker decouples agents from each other's addresses.
//
//	agent ↔ MQTT broker ↔ peer agents
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Node(selfUUID, "lb"), 1,
//	    func(topic string, payload []byte) error {
//	        return dispatch(payload)
//	    })
package mqtt
