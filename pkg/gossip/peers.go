package gossip

import "time"

// PeerTable tracks when each peer was last heard from. Absence means
// "currently considered down", not "never seen" — any message from a peer
// re-inserts it. Not safe for concurrent use; the Node serializes access.
type PeerTable struct {
	lastHeard map[int]time.Time
}

// NewPeerTable returns an empty table.
func NewPeerTable() *PeerTable {
	return &PeerTable{lastHeard: make(map[int]time.Time)}
}

// Touch inserts or refreshes the peer's last-heard timestamp.
func (pt *PeerTable) Touch(peer int, now time.Time) {
	pt.lastHeard[peer] = now
}

// List returns a snapshot of current membership.
func (pt *PeerTable) List() []int {
	peers := make([]int, 0, len(pt.lastHeard))
	for p := range pt.lastHeard {
		peers = append(peers, p)
	}
	return peers
}

// LastHeard reports the recorded timestamp for a peer.
func (pt *PeerTable) LastHeard(peer int) (time.Time, bool) {
	t, ok := pt.lastHeard[peer]
	return t, ok
}

// Len reports the number of live peers.
func (pt *PeerTable) Len() int {
	return len(pt.lastHeard)
}

// EvictStale removes every peer idle for longer than timeout and returns
// the evicted ports. This is the failure detector: purely heartbeat-timeout
// based, refreshed by any message heard.
func (pt *PeerTable) EvictStale(now time.Time, timeout time.Duration) []int {
	var evicted []int
	for p, heard := range pt.lastHeard {
		if now.Sub(heard) > timeout {
			evicted = append(evicted, p)
		}
	}
	for _, p := range evicted {
		delete(pt.lastHeard, p)
	}
	return evicted
}

// Snapshot returns a copy of the table, keyed by port.
func (pt *PeerTable) Snapshot() map[int]time.Time {
	out := make(map[int]time.Time, len(pt.lastHeard))
	for p, t := range pt.lastHeard {
		out[p] = t
	}
	return out
}

// Clear drops all peers.
func (pt *PeerTable) Clear() {
	pt.lastHeard = make(map[int]time.Time)
}
