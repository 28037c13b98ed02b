package gossip

import (
	"fmt"
	"sync"
)

// Transport delivers an envelope point-to-point to the peer listening on
// the given port. Implementations must be safe for concurrent use; the Node
// calls Deliver outside its critical section, possibly from several
// goroutine contexts. A delivery failure is a network condition, not a
// protocol error: the Node logs it and moves on to the next peer.
type Transport interface {
	Deliver(peer int, env Envelope) error
}

// ChanTransport is an in-process Transport backed by per-peer channels.
// Used by tests and by multi-node simulations in a single process.
type ChanTransport struct {
	mu      sync.Mutex
	inboxes map[int]chan Envelope
}

// NewChanTransport returns an empty in-process transport.
func NewChanTransport() *ChanTransport {
	return &ChanTransport{inboxes: make(map[int]chan Envelope)}
}

// Register creates (or returns) the inbox channel for a port.
func (t *ChanTransport) Register(peer int, buf int) chan Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ch, ok := t.inboxes[peer]; ok {
		return ch
	}
	ch := make(chan Envelope, buf)
	t.inboxes[peer] = ch
	return ch
}

// Deliver places the envelope in the peer's inbox. An unregistered peer or
// a full inbox is reported as a delivery failure.
func (t *ChanTransport) Deliver(peer int, env Envelope) error {
	t.mu.Lock()
	ch, ok := t.inboxes[peer]
	t.mu.Unlock()
	if !ok {
		return fmt.Errorf("peer %d unreachable", peer)
	}
	select {
	case ch <- env:
		return nil
	default:
		return fmt.Errorf("peer %d inbox full", peer)
	}
}
