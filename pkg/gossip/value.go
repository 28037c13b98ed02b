package gossip

// ValueTracker holds the biggest prime this node knows of and who it is
// attributed to. Best is monotonically non-decreasing for the lifetime of
// the node, absent an explicit reset. Not safe for concurrent use; the Node
// serializes access.
type ValueTracker struct {
	self   int
	best   int64
	source int
}

// initialBest is the value every node starts from.
const initialBest = 2

// NewValueTracker starts at 2, attributed to the node itself.
func NewValueTracker(self int) *ValueTracker {
	return &ValueTracker{self: self, best: initialBest, source: self}
}

// Observe adopts the candidate if it beats the current best and reports
// whether it did. A stale candidate is a no-op.
func (v *ValueTracker) Observe(candidate int64, source int) bool {
	if candidate <= v.best {
		return false
	}
	v.best = candidate
	v.source = source
	return true
}

// Advance computes the next value from the current best via the numeric
// collaborator, adopts it attributed to self, and returns it. This is the
// only place new values enter the system locally.
func (v *ValueTracker) Advance(next func(int64) int64) int64 {
	v.best = next(v.best)
	v.source = v.self
	return v.best
}

// Best returns the current best value and its attributed source.
func (v *ValueTracker) Best() (int64, int) {
	return v.best, v.source
}

// Reset restores the initial value attributed to self.
func (v *ValueTracker) Reset() {
	v.best = initialBest
	v.source = v.self
}
