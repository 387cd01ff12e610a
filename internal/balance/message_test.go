package balance

import (
	"errors"
	"strings"
	"testing"
)

func TestMessage_EncodeDecode(t *testing.T) {
	msg := Message{
		Tag:    TagLB,
		Type:   TypeAccept,
		Source: "node-b",
		Value:  3.25,
	}

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := DecodeMessage(TagLB, data)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}

	if got.Type != TypeAccept || got.Source != "node-b" || got.Value != 3.25 {
		t.Errorf("DecodeMessage() = %+v", got)
	}
}

func TestMessage_PeerListWireFormat(t *testing.T) {
	msg := Message{
		Tag:    TagLB,
		Type:   TypePeerList,
		Source: "leader",
		Peers:  []string{"a", "b", "c"},
	}

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	// The roster must be comma-joined with no surrounding whitespace.
	if !strings.Contains(string(data), `"lb.peers":"a,b,c"`) {
		t.Errorf("wire form missing comma-joined roster: %s", data)
	}

	got, err := DecodeMessage(TagLB, data)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if len(got.Peers) != 3 || got.Peers[0] != "a" || got.Peers[2] != "c" {
		t.Errorf("Peers = %v, want [a b c]", got.Peers)
	}
}

func TestMessage_StatusReply(t *testing.T) {
	msg := Message{
		Tag:    TagSC,
		Type:   TypeLoad,
		Source: "node-a",
		Status: "SUPPLY",
	}

	data, err := msg.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.Contains(string(data), `"sc.status":"SUPPLY"`) {
		t.Errorf("wire form missing status: %s", data)
	}

	got, err := DecodeMessage(TagSC, data)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if got.Status != "SUPPLY" {
		t.Errorf("Status = %q, want SUPPLY", got.Status)
	}
}

func TestDecodeMessage_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "not-json"},
		{"missing tag", `{"lb.source":"a"}`},
		{"missing source", `{"lb":"demand"}`},
		{"bad value", `{"lb":"accept","lb.source":"a","lb.value":"lots"}`},
		{"negative value", `{"lb":"accept","lb.source":"a","lb.value":"-2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMessage(TagLB, []byte(tt.payload))
			if !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("DecodeMessage() error = %v, want ErrMalformedMessage", err)
			}
		})
	}
}

func TestMessage_EncodeRequiresIdentity(t *testing.T) {
	_, err := Message{Tag: TagLB, Type: TypeDemand}.Encode()
	if !errors.Is(err, ErrMalformedMessage) {
		t.Errorf("Encode() without source error = %v, want ErrMalformedMessage", err)
	}
}
