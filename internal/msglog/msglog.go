// Package msglog keeps a bounded in-memory log of the envelopes a node has
// sent and received, plus errors it recovered from. The admin surface reads
// the tail of it.
package msglog

import (
	"container/list"
	"sync"
	"time"

	"primemesh/pkg/gossip"
)

// Entry is one logged event. Either an envelope crossing the node boundary
// or a recovered error.
type Entry struct {
	Type       string  `json:"msg_type,omitempty"`
	ID         int64   `json:"msg_id,omitempty"`
	Originator int     `json:"msg_originator,omitempty"`
	Forwarder  int     `json:"msg_forwarder,omitempty"`
	TTL        int     `json:"ttl,omitempty"`
	Data       *int64  `json:"data,omitempty"`
	Error      string  `json:"error,omitempty"`
	Timestamp  float64 `json:"timestamp"`
	Received   bool    `json:"received,omitempty"`
}

// Log is a fixed-capacity message log; once full, the oldest entry is
// dropped for each new one. Safe for concurrent use.
type Log struct {
	mu  sync.Mutex
	ll  *list.List
	cap int
}

// New returns a log holding at most capacity entries.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = 512
	}
	return &Log{ll: list.New(), cap: capacity}
}

// RecordEnvelope logs an envelope as it crosses the node boundary.
func (l *Log) RecordEnvelope(env gossip.Envelope, received bool) {
	l.append(Entry{
		Type:       env.Type,
		ID:         env.ID,
		Originator: env.Originator,
		Forwarder:  env.Forwarder,
		TTL:        env.TTL,
		Data:       env.Data,
		Received:   received,
	})
}

// RecordError logs a recovered error.
func (l *Log) RecordError(err error) {
	l.append(Entry{Error: err.Error(), Received: true})
}

func (l *Log) append(e Entry) {
	e.Timestamp = float64(time.Now().UnixNano()) / float64(time.Second)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ll.PushBack(e)
	for l.ll.Len() > l.cap {
		l.ll.Remove(l.ll.Front())
	}
}

// Tail returns the most recent n entries, oldest first.
func (l *Log) Tail(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > l.ll.Len() {
		n = l.ll.Len()
	}
	out := make([]Entry, 0, n)
	el := l.ll.Back()
	for i := 0; i < n; i++ {
		out = append(out, el.Value.(Entry))
		el = el.Prev()
	}
	// reverse into chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Len reports the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ll.Len()
}

// Clear drops all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ll.Init()
}
