package gossip

// Deduplicator remembers which message identities this node has already
// acted on, so redundant flood deliveries are no-ops. Entries are never
// pruned; a long-running node accumulates them unboundedly (see DESIGN.md).
// Not safe for concurrent use; the Node serializes access.
type Deduplicator struct {
	seen map[MessageID]struct{}
}

// NewDeduplicator returns an empty seen-set.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[MessageID]struct{})}
}

// Seen reports whether the identity was already processed. No mutation.
func (d *Deduplicator) Seen(id MessageID) bool {
	_, ok := d.seen[id]
	return ok
}

// Mark records the identity as processed. Idempotent.
func (d *Deduplicator) Mark(id MessageID) {
	d.seen[id] = struct{}{}
}

// Len reports how many identities have been recorded.
func (d *Deduplicator) Len() int {
	return len(d.seen)
}

// Clear drops all recorded identities.
func (d *Deduplicator) Clear() {
	d.seen = make(map[MessageID]struct{})
}
