package balance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Message tags routed by the dispatcher.
const (
	// TagLB routes to the load-balancing module.
	TagLB = "lb"

	// TagSC routes to the state-collection module.
	TagSC = "sc"
)

// Load-balancing message types carried under the lb tag.
const (
	TypePeerList = "peerList"
	TypeDemand   = "demand"
	TypeNormal   = "normal"
	TypeSupply   = "supply"
	TypeRequest  = "request"
	TypeYes      = "yes"
	TypeNo       = "no"
	TypeDrafting = "drafting"
	TypeAccept   = "accept"
	TypeLoad     = "load"
)

// Message is one protocol message between nodes.
//
// On the wire it is a flat JSON object of string keys mirroring the
// property-tree layout the transport inherited:
//
//	{"lb":"accept","lb.source":"<uuid>","lb.value":"3.000"}
//	{"sc":"load","sc.source":"<uuid>","sc.status":"SUPPLY"}
//
// Tag selects the receiving module; Type is the value stored under the
// tag key itself.
type Message struct {
	Tag    string
	Type   string
	Source string

	// Peers is the group roster carried by peerList messages.
	Peers []string

	// Value is the advisory kW carried by accept messages.
	Value float64

	// Status is the load state carried by sc replies.
	Status string
}

// valueDecimals is the wire precision for lb.value (millikilowatts).
const valueDecimals = 3

// Encode serializes the message to its wire form.
func (m Message) Encode() ([]byte, error) {
	if m.Tag == "" || m.Type == "" || m.Source == "" {
		return nil, fmt.Errorf("%w: tag, type and source are required", ErrMalformedMessage)
	}

	fields := map[string]string{
		m.Tag:             m.Type,
		m.Tag + ".source": m.Source,
	}
	if len(m.Peers) > 0 {
		fields[m.Tag+".peers"] = strings.Join(m.Peers, ",")
	}
	if m.Type == TypeAccept {
		fields[m.Tag+".value"] = strconv.FormatFloat(m.Value, 'f', valueDecimals, 64)
	}
	if m.Status != "" {
		fields[m.Tag+".status"] = m.Status
	}

	return json.Marshal(fields)
}

// DecodeMessage parses a wire payload addressed to the given tag.
//
// Returns ErrMalformedMessage (wrapped) when the payload is not valid
// JSON, lacks the tag or source keys, or carries an unparsable value.
func DecodeMessage(tag string, payload []byte) (Message, error) {
	var fields map[string]string
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	typ, ok := fields[tag]
	if !ok || typ == "" {
		return Message{}, fmt.Errorf("%w: missing %q key", ErrMalformedMessage, tag)
	}
	source, ok := fields[tag+".source"]
	if !ok || source == "" {
		return Message{}, fmt.Errorf("%w: missing %q key", ErrMalformedMessage, tag+".source")
	}

	msg := Message{
		Tag:    tag,
		Type:   typ,
		Source: source,
		Status: fields[tag+".status"],
	}

	if raw, ok := fields[tag+".peers"]; ok && raw != "" {
		msg.Peers = strings.Split(raw, ",")
	}

	if raw, ok := fields[tag+".value"]; ok {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Message{}, fmt.Errorf("%w: bad value %q", ErrMalformedMessage, raw)
		}
		if value < 0 {
			return Message{}, fmt.Errorf("%w: negative value %q", ErrMalformedMessage, raw)
		}
		msg.Value = value
	}

	return msg, nil
}
