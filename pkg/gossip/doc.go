// Package gossip implements the membership and dissemination engine for a
// primemesh node. It maintains a live peer table via heartbeats and
// timeout-based eviction, and spreads the biggest known Mersenne prime
// through a hybrid epidemic-push/bounded-flood broadcast with duplicate
// suppression.
//
// Typical usage:
//
//	n := gossip.NewNode(gossip.Config{Port: 5001}, transport, logger)
//	n.Start()
//	defer n.Stop()
//
// The Node owns all mutable protocol state (peer table, seen set, value
// state, message counter) behind a single mutex; inbound dispatch and the
// three timer loops all serialize through it. Network sends happen outside
// the critical section so a slow peer never stalls the node.
package gossip
