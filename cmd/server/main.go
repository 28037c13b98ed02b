package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"primemesh/discovery"
	"primemesh/internal/msglog"
	"primemesh/internal/names"
	"primemesh/pkg/gossip"
	"primemesh/pkg/node"
	"primemesh/pkg/prime"
)

func main() {
	port := flag.Int("port", 0, "listening port; doubles as this node's identity (>= 1024)")
	seed := flag.Int("peer", 0, "optional seed peer port to bootstrap from")
	etcdEndpoints := flag.String("etcd", "", "optional comma-separated etcd endpoints for peer discovery")
	logCap := flag.Int("log-cap", 512, "message log capacity")
	flag.Parse()

	if *port < 1024 {
		fmt.Fprintln(os.Stderr, "usage: server -port <port >= 1024> [-peer <port>] [-etcd <endpoints>]")
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "init logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	name := names.Pick()
	logger.Info("my name is", zap.String("name", name), zap.Int("port", *port))

	core := gossip.NewNode(gossip.Config{
		Port:              *port,
		Name:              name,
		SeedPeer:          *seed,
		HeartbeatInterval: envDuration("HEARTBEAT_INTERVAL", gossip.DefaultHeartbeatInterval),
		EvictInterval:     envDuration("EVICT_INTERVAL", gossip.DefaultEvictInterval),
		AdvanceInterval:   envDuration("ADVANCE_INTERVAL", gossip.DefaultAdvanceInterval),
		PeerTimeout:       envDuration("PEER_TIMEOUT", gossip.DefaultPeerTimeout),
		StartupJitter:     envDuration("STARTUP_JITTER", gossip.DefaultStartupJitter),
		InfectionFactor:   envInt("INFECTION_FACTOR", gossip.DefaultInfectionFactor),
		OriginTTL:         envInt("ORIGIN_TTL", gossip.DefaultOriginTTL),
		NextPrime:         prime.NextMersenne,
	}, node.NewHTTPTransport(0), logger)

	log := msglog.New(*logCap)
	core.SetRecorder(log)

	if *etcdEndpoints != "" {
		cli, err := discovery.NewClient(strings.Split(*etcdEndpoints, ","))
		if err != nil {
			logger.Fatal("etcd client", zap.Error(err))
		}
		defer cli.Close()

		ctx := context.Background()
		peers, err := discovery.FetchPeers(ctx, cli, *port)
		if err != nil {
			logger.Fatal("etcd bootstrap", zap.Error(err))
		}
		for _, p := range peers {
			logger.Info("bootstrap peer", zap.Int("peer", p))
			core.AddPeer(p)
		}

		revoke, err := discovery.RegisterNode(ctx, cli, *port, name, 10)
		if err != nil {
			logger.Fatal("etcd register", zap.Error(err))
		}
		defer revoke()

		discovery.WatchPeers(ctx, cli, *port, func(p int) {
			logger.Info("discovered peer", zap.Int("peer", p))
			core.AddPeer(p)
		})
	}

	core.Start()
	defer core.Stop()

	srv := node.NewServer(core, log, logger)
	addr := fmt.Sprintf(":%d", *port)
	logger.Info("primemesh node listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

// envDuration reads a duration override from the environment, e.g.
// HEARTBEAT_INTERVAL=500ms. Unset or unparseable values fall back to def.
func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
