package gossip

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"primemesh/internal/telemetry"
)

// Protocol constants. Intervals are configurable per node; these are the
// defaults every deployment ships with.
const (
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultEvictInterval     = 1 * time.Second
	DefaultAdvanceInterval   = 10 * time.Second
	DefaultPeerTimeout       = 10 * time.Second
	DefaultInfectionFactor   = 2
	DefaultOriginTTL         = 2
	DefaultStartupJitter     = 2 * time.Second
)

// Config carries the identity and tunables of a node.
type Config struct {
	// Port is the node's identity on the mesh. Peers address each other
	// by listening port.
	Port int
	// Name is the human-readable label surfaced in the state snapshot.
	Name string
	// SeedPeer, if non-zero, is inserted into the peer table at boot and
	// again on every Reset.
	SeedPeer int

	HeartbeatInterval time.Duration
	EvictInterval     time.Duration
	AdvanceInterval   time.Duration
	PeerTimeout       time.Duration
	// StartupJitter is the maximum random delay before the timer loops
	// begin, so nodes started together don't tick in lockstep.
	StartupJitter time.Duration

	// InfectionFactor is how many random peers an origination pushes to.
	InfectionFactor int
	// OriginTTL is the hop budget on freshly originated PRIME messages.
	OriginTTL int

	// NextPrime computes the next value from the current best. Supplied
	// by the caller; if nil the advancement timer is a no-op.
	NextPrime func(int64) int64
}

func (c Config) withDefaults() Config {
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.EvictInterval <= 0 {
		c.EvictInterval = DefaultEvictInterval
	}
	if c.AdvanceInterval <= 0 {
		c.AdvanceInterval = DefaultAdvanceInterval
	}
	if c.PeerTimeout <= 0 {
		c.PeerTimeout = DefaultPeerTimeout
	}
	if c.InfectionFactor <= 0 {
		c.InfectionFactor = DefaultInfectionFactor
	}
	if c.OriginTTL <= 0 {
		c.OriginTTL = DefaultOriginTTL
	}
	return c
}

// Recorder observes envelopes as they cross the node boundary and errors
// recovered during fan-out. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordEnvelope(env Envelope, received bool)
	RecordError(err error)
}

// State is a point-in-time snapshot of the node, shaped for the admin
// surface. Peer keys are stringified ports, values are last-heard unix
// seconds.
type State struct {
	Name               string             `json:"name"`
	Port               int                `json:"port"`
	Peers              map[string]float64 `json:"peers"`
	BiggestPrime       int64              `json:"biggest_prime"`
	BiggestPrimeSender int                `json:"biggest_prime_sender"`
	MsgID              int64              `json:"msg_id"`
	Awake              bool               `json:"awake"`
}

// delivery is one planned point-to-point send, computed under the lock and
// executed outside it.
type delivery struct {
	peer int
	env  Envelope
}

// Node is the dissemination-and-membership engine. All shared mutable state
// (peer table, seen set, value state, message counter, awake flag) lives
// behind a single mutex; inbound dispatch and every timer callback acquire
// it before touching anything.
type Node struct {
	cfg Config
	log *zap.Logger
	tp  Transport
	rec Recorder

	mu     sync.Mutex
	awake  bool
	peers  *PeerTable
	seen   *Deduplicator
	value  *ValueTracker
	nextID int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNode builds a node around the given transport. The logger is required;
// pass zap.NewNop() to silence it.
func NewNode(cfg Config, tp Transport, logger *zap.Logger) *Node {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	n := &Node{
		cfg:    cfg,
		log:    logger,
		tp:     tp,
		awake:  true,
		peers:  NewPeerTable(),
		seen:   NewDeduplicator(),
		value:  NewValueTracker(cfg.Port),
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.SeedPeer != 0 && cfg.SeedPeer != cfg.Port {
		n.peers.Touch(cfg.SeedPeer, time.Now())
	}
	telemetry.LivePeers.Set(float64(n.peers.Len()))
	telemetry.BiggestPrime.Set(float64(initialBest))
	return n
}

// SetRecorder attaches a message recorder. Call before Start.
func (n *Node) SetRecorder(rec Recorder) {
	n.rec = rec
}

// Start launches the heartbeat, eviction, and value-advancement loops.
// Each loop waits out a shared random jitter first.
func (n *Node) Start() {
	var jitter time.Duration
	if n.cfg.StartupJitter > 0 {
		jitter = time.Duration(rand.Int63n(int64(n.cfg.StartupJitter)))
	}
	n.wg.Add(3)
	go n.loop(jitter, n.cfg.HeartbeatInterval, n.heartbeatTick)
	go n.loop(jitter, n.cfg.EvictInterval, n.evictTick)
	go n.loop(jitter, n.cfg.AdvanceInterval, n.advanceTick)
	n.log.Info("node started",
		zap.Int("port", n.cfg.Port),
		zap.String("name", n.cfg.Name),
		zap.Int("seed_peer", n.cfg.SeedPeer),
		zap.Duration("jitter", jitter))
}

// Stop cancels the timer loops and waits for them to finish.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()
}

func (n *Node) loop(delay, interval time.Duration, tick func()) {
	defer n.wg.Done()
	if delay > 0 {
		select {
		case <-n.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// HandleEnvelope is the dispatch entry point for inbound messages. It
// reports false when the node is asleep and the message was ignored.
// The caller is expected to have validated the envelope.
func (n *Node) HandleEnvelope(env Envelope) bool {
	outs, awake := n.dispatch(env)
	if !awake {
		return false
	}
	n.send(outs)
	return true
}

// dispatch applies the per-message state machine under the lock and returns
// the sends it decided on. Sends are executed by the caller outside the
// critical section.
func (n *Node) dispatch(env Envelope) (outs []delivery, awake bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.awake {
		return nil, false
	}

	id := env.MessageID()
	if n.seen.Seen(id) {
		telemetry.DuplicatesDropped.Inc()
		return nil, true
	}
	// Never act on a message this node originated, even on first receipt:
	// an earlier broadcast can loop back through a cycle.
	if env.Originator == n.cfg.Port {
		return nil, true
	}
	n.seen.Mark(id)

	now := time.Now()
	n.peers.Touch(env.Forwarder, now)
	telemetry.MessagesReceived.WithLabelValues(env.Type).Inc()

	switch env.Type {
	case TypePing:
		// Reply with exactly one PONG, point-to-point to the originator.
		outs = append(outs, delivery{peer: env.Originator, env: n.originate(TypePong, 0, nil)})
	case TypePong:
		// Pure liveness signal; the Touch above is the whole effect.
	case TypePrime:
		if env.Data == nil {
			break
		}
		if n.value.Observe(*env.Data, env.Originator) {
			telemetry.BiggestPrime.Set(float64(*env.Data))
			n.log.Info("adopted bigger prime",
				zap.Int64("prime", *env.Data),
				zap.Int("source", env.Originator))
		}
		n.peers.Touch(env.Originator, now)
		// Relay regardless of adoption: the forward decision is keyed on
		// message identity, not value freshness.
		if env.TTL > 0 {
			relay := env
			relay.TTL--
			relay.Forwarder = n.cfg.Port
			for _, peer := range n.peers.List() {
				outs = append(outs, delivery{peer: peer, env: relay})
			}
		}
	}
	telemetry.LivePeers.Set(float64(n.peers.Len()))
	return outs, true
}

// originate builds a fresh envelope from this node, consuming one counter
// value. Caller must hold the lock.
func (n *Node) originate(msgType string, ttl int, data *int64) Envelope {
	env := Envelope{
		Type:       msgType,
		ID:         n.nextID,
		Originator: n.cfg.Port,
		Forwarder:  n.cfg.Port,
		TTL:        ttl,
		Data:       data,
	}
	n.nextID++
	return env
}

// heartbeatTick sends a PING to every known peer.
func (n *Node) heartbeatTick() {
	n.mu.Lock()
	if !n.awake {
		n.mu.Unlock()
		return
	}
	var outs []delivery
	for _, peer := range n.peers.List() {
		outs = append(outs, delivery{peer: peer, env: n.originate(TypePing, 0, nil)})
	}
	n.mu.Unlock()
	n.send(outs)
}

// evictTick removes peers idle past the timeout.
func (n *Node) evictTick() {
	n.mu.Lock()
	if !n.awake {
		n.mu.Unlock()
		return
	}
	evicted := n.peers.EvictStale(time.Now(), n.cfg.PeerTimeout)
	telemetry.LivePeers.Set(float64(n.peers.Len()))
	n.mu.Unlock()

	for _, peer := range evicted {
		telemetry.PeerEvictions.Inc()
		n.log.Info("evicted stale peer", zap.Int("peer", peer))
	}
}

// advanceTick computes the next prime locally and pushes it to a random
// subset of peers (epidemic push).
func (n *Node) advanceTick() {
	if n.cfg.NextPrime == nil {
		return
	}
	n.mu.Lock()
	if !n.awake {
		n.mu.Unlock()
		return
	}
	next := n.value.Advance(n.cfg.NextPrime)
	telemetry.BiggestPrime.Set(float64(next))
	targets := samplePeers(n.peers.List(), n.cfg.InfectionFactor)
	outs := make([]delivery, 0, len(targets))
	for _, peer := range targets {
		data := next
		outs = append(outs, delivery{peer: peer, env: n.originate(TypePrime, n.cfg.OriginTTL, &data)})
	}
	n.mu.Unlock()

	n.log.Info("advanced prime", zap.Int64("prime", next), zap.Int("fanout", len(outs)))
	n.send(outs)
}

// samplePeers picks min(k, len(peers)) peers uniformly without replacement.
func samplePeers(peers []int, k int) []int {
	if len(peers) <= k {
		return peers
	}
	rand.Shuffle(len(peers), func(i, j int) {
		peers[i], peers[j] = peers[j], peers[i]
	})
	return peers[:k]
}

// send executes planned deliveries outside the critical section. A failed
// peer never prevents delivery attempts to the rest of the round.
func (n *Node) send(outs []delivery) {
	for _, d := range outs {
		if d.peer <= 0 {
			// A non-positive port means the envelope was constructed
			// wrong. That's a bug, not a network condition.
			n.log.DPanic("invalid send target", zap.Int("peer", d.peer), zap.String("msg_type", d.env.Type))
			continue
		}
		if n.rec != nil {
			n.rec.RecordEnvelope(d.env, false)
		}
		telemetry.MessagesSent.WithLabelValues(d.env.Type).Inc()
		if err := n.tp.Deliver(d.peer, d.env); err != nil {
			telemetry.SendFailures.Inc()
			n.log.Warn("deliver failed",
				zap.Int("peer", d.peer),
				zap.String("msg_type", d.env.Type),
				zap.Error(err))
			if n.rec != nil {
				n.rec.RecordError(err)
			}
		}
	}
}

// Sleep suspends all side effects: inbound messages and timer ticks are
// accepted but do nothing. Idempotent.
func (n *Node) Sleep() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.awake = false
	n.log.Info("node asleep", zap.Int("port", n.cfg.Port))
}

// Wake resumes normal operation. Idempotent.
func (n *Node) Wake() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.awake = true
	n.log.Info("node awake", zap.Int("port", n.cfg.Port))
}

// Awake reports the operational toggle.
func (n *Node) Awake() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.awake
}

// AddPeer inserts a peer as freshly heard from. Used by discovery; the
// protocol itself learns peers from inbound traffic.
func (n *Node) AddPeer(peer int) {
	if peer == n.cfg.Port || peer <= 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers.Touch(peer, time.Now())
	telemetry.LivePeers.Set(float64(n.peers.Len()))
}

// Reset clears the peer table, the seen set, and the value state, re-seeds
// the configured seed peer, and wakes the node. The message counter is
// preserved and bumped so no identity this node ever issued can recur.
func (n *Node) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers.Clear()
	n.seen.Clear()
	n.value.Reset()
	n.nextID++
	n.awake = true
	if n.cfg.SeedPeer != 0 && n.cfg.SeedPeer != n.cfg.Port {
		n.peers.Touch(n.cfg.SeedPeer, time.Now())
	}
	telemetry.LivePeers.Set(float64(n.peers.Len()))
	telemetry.BiggestPrime.Set(float64(initialBest))
	n.log.Info("node reset", zap.Int("port", n.cfg.Port))
}

// Snapshot returns the current state for the admin surface.
func (n *Node) Snapshot() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	best, source := n.value.Best()
	peers := make(map[string]float64, n.peers.Len())
	for p, t := range n.peers.Snapshot() {
		peers[strconv.Itoa(p)] = float64(t.UnixNano()) / float64(time.Second)
	}
	return State{
		Name:               n.cfg.Name,
		Port:               n.cfg.Port,
		Peers:              peers,
		BiggestPrime:       best,
		BiggestPrimeSender: source,
		MsgID:              n.nextID,
		Awake:              n.awake,
	}
}
