// Package discovery bootstraps a node's peer table from etcd. It is
// optional: without it a node learns peers from its configured seed and
// from inbound traffic, the same way it re-discovers them after a
// partition. Departures are left to the protocol's own eviction sweep.
package discovery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const nodePrefix = "/primemesh/nodes/"

// NewClient dials etcd.
func NewClient(endpoints []string) (*clientv3.Client, error) {
	return clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
}

// RegisterNode announces this node under a keep-alive lease, so the entry
// disappears when the process does. Cancel the returned function to revoke.
func RegisterNode(ctx context.Context, cli *clientv3.Client, port int, name string, ttlSeconds int64) (func(), error) {
	lease, err := cli.Grant(ctx, ttlSeconds)
	if err != nil {
		return nil, fmt.Errorf("grant lease: %w", err)
	}
	key := nodePrefix + strconv.Itoa(port)
	if _, err := cli.Put(ctx, key, name, clientv3.WithLease(lease.ID)); err != nil {
		return nil, fmt.Errorf("register %s: %w", key, err)
	}

	keepCtx, cancel := context.WithCancel(ctx)
	ch, err := cli.KeepAlive(keepCtx, lease.ID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("keepalive: %w", err)
	}
	go func() {
		for range ch {
			// drain keepalive responses until the lease or context dies
		}
	}()

	revoke := func() {
		cancel()
		revokeCtx, revokeCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer revokeCancel()
		_, _ = cli.Revoke(revokeCtx, lease.ID)
	}
	return revoke, nil
}

// FetchPeers lists the ports currently registered, excluding self.
func FetchPeers(ctx context.Context, cli *clientv3.Client, self int) ([]int, error) {
	resp, err := cli.Get(ctx, nodePrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("fetch peers: %w", err)
	}
	peers := make([]int, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		port, err := portFromKey(string(kv.Key))
		if err != nil || port == self {
			continue
		}
		peers = append(peers, port)
	}
	return peers, nil
}

// WatchPeers invokes onJoin for every node that registers after the watch
// starts. Deletions are ignored: a departed peer stops heartbeating and the
// eviction sweep removes it.
func WatchPeers(ctx context.Context, cli *clientv3.Client, self int, onJoin func(port int)) {
	ch := cli.Watch(ctx, nodePrefix, clientv3.WithPrefix())
	go func() {
		for resp := range ch {
			for _, ev := range resp.Events {
				if ev.Type != mvccpb.PUT {
					continue
				}
				port, err := portFromKey(string(ev.Kv.Key))
				if err != nil || port == self {
					continue
				}
				onJoin(port)
			}
		}
	}()
}

func portFromKey(key string) (int, error) {
	return strconv.Atoi(strings.TrimPrefix(key, nodePrefix))
}
