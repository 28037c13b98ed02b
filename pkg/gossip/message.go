package gossip

import (
	"fmt"
)

// Message types on the wire.
const (
	TypePing  = "PING"
	TypePong  = "PONG"
	TypePrime = "PRIME"
)

// MessageID identifies a message network-wide. IDs are assigned from a
// per-node monotonic counter, so only the (ID, Originator) pair is unique.
type MessageID struct {
	ID         int64
	Originator int
}

// Envelope is the wire-level JSON message exchanged between nodes.
// Data is a pointer so PING/PONG marshal it as null.
type Envelope struct {
	Type       string `json:"msg_type"`
	ID         int64  `json:"msg_id"`
	Originator int    `json:"msg_originator"`
	Forwarder  int    `json:"msg_forwarder"`
	TTL        int    `json:"ttl"`
	Data       *int64 `json:"data"`
}

// MessageID returns the dedup identity of the envelope.
func (e Envelope) MessageID() MessageID {
	return MessageID{ID: e.ID, Originator: e.Originator}
}

// Validate rejects malformed envelopes: unknown type, negative ttl,
// non-positive peer ports, a PRIME without a payload, or a payload on
// anything else.
func (e Envelope) Validate() error {
	switch e.Type {
	case TypePing, TypePong, TypePrime:
	default:
		return fmt.Errorf("unknown msg_type %q", e.Type)
	}
	if e.TTL < 0 {
		return fmt.Errorf("negative ttl %d", e.TTL)
	}
	if e.Originator <= 0 {
		return fmt.Errorf("invalid msg_originator %d", e.Originator)
	}
	if e.Forwarder <= 0 {
		return fmt.Errorf("invalid msg_forwarder %d", e.Forwarder)
	}
	if e.Type == TypePrime && e.Data == nil {
		return fmt.Errorf("PRIME envelope without data")
	}
	if e.Type != TypePrime && e.Data != nil {
		return fmt.Errorf("%s envelope with data %d", e.Type, *e.Data)
	}
	return nil
}
