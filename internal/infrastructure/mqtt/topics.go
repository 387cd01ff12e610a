package mqtt

import "fmt"

// Topic prefixes for the microgrid message bus.
//
// Peer-to-peer protocol traffic uses per-node unicast topics:
//
//	microgrid/node/{uuid}/{tag}
//
// where tag routes to a module on the receiving node ("lb" for load
// balancing, "sc" for state collection). System presence uses a shared
// retained topic.
const (
	// TopicPrefixNode is the base for per-node unicast topics.
	TopicPrefixNode = "microgrid/node"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "microgrid/system"
)

// Topics provides builders for microgrid MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// Node returns the unicast topic for a module on a specific node.
//
// Example: microgrid/node/3f2a.../lb
func (Topics) Node(uuid, tag string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixNode, uuid, tag)
}

// NodeAll returns a pattern matching every tag addressed to a node.
//
// Pattern: microgrid/node/3f2a.../+
func (Topics) NodeAll(uuid string) string {
	return fmt.Sprintf("%s/%s/+", TopicPrefixNode, uuid)
}

// SystemStatus returns the presence topic carrying online/offline payloads.
//
// Example: microgrid/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
