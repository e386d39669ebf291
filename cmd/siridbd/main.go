package main

import (
	"context"
	"flag"
	"log"
	"net"
	"strconv"
	"strings"

	"github.com/teotikalki/siridb-server/cluster"
	"github.com/teotikalki/siridb-server/config"
	"github.com/teotikalki/siridb-server/dispatch"
	"github.com/teotikalki/siridb-server/gateway"
	"github.com/teotikalki/siridb-server/insert"
	netpkg "github.com/teotikalki/siridb-server/net"
)

func main() {
	configPath := flag.String("config", "/etc/siridbd/siridbd.toml", "path to the siridbd TOML config file")
	join := flag.String("join", "", "comma separated gossip seeds to join on startup")
	flag.Parse()

	cfg, err := config.Parse(*configPath)
	if err != nil {
		log.Fatalf("[Main] failed to load config: %s", err)
	}

	router := cluster.NewRouter(cluster.XXHasher{}, cfg.PoolCount)

	// Peers reach this pool through the package server, which listens on
	// bind-port+1 (bind-port itself is the gossip port).
	serverAddr := net.JoinHostPort(cfg.BindAddr, strconv.Itoa(cfg.BindPort+1))

	table := cluster.NewTable()
	table.Put(&cluster.Pool{ID: cfg.PoolID, Name: "local", PrimaryAddr: serverAddr, Status: cluster.PoolStatusUp})

	registry, err := cluster.OpenBoltSeriesRegistry(cfg.SeriesRegistryPath)
	if err != nil {
		log.Fatalf("[Main] failed to open series registry: %s", err)
	}
	defer registry.Close()

	if len(cfg.EtcdSeeds) > 0 {
		dir, err := cluster.NewEtcdPoolDirectory(cfg.ClusterID, cfg.EtcdSeeds)
		if err != nil {
			log.Fatalf("[Main] failed to reach etcd: %s", err)
		}
		if err := dir.Assign(cfg.PoolID, serverAddr); err != nil {
			log.Fatalf("[Main] failed to publish pool address: %s", err)
		}
		if err := cluster.LoadTable(dir, table); err != nil {
			log.Fatalf("[Main] failed to load pool directory: %s", err)
		}
		go cluster.WatchTable(context.Background(), dir, table)
	}

	membership, err := cluster.NewMembership(cluster.MembershipConfig{
		BindAddr: cfg.BindAddr,
		BindPort: cfg.BindPort,
		PoolID:   cfg.PoolID,
	}, table, tableStatusDelegate{table})
	if err != nil {
		log.Fatalf("[Main] failed to start membership: %s", err)
	}

	seeds := cfg.GossipSeeds
	if *join != "" {
		seeds = append(seeds, strings.Split(*join, ",")...)
	}
	if len(seeds) > 0 {
		if err := membership.Join(seeds); err != nil {
			log.Printf("[Main] failed to join any seed: %s", err)
		}
	}

	peerAddrs := map[uint16]string{}
	for _, pool := range table.All() {
		if pool.ID != cfg.PoolID {
			peerAddrs[pool.ID] = pool.PrimaryAddr
		}
	}
	transport := netpkg.NewPeerTransport(peerAddrs)
	transport.Secret = cfg.PeerSecret

	d := &dispatch.Dispatcher{
		LocalPoolID: cfg.PoolID,
		Registry:    registry,
		Storage:     localStorage{},
		Transport:   transport,
		Timeout:     cfg.InsertTimeout(),
	}

	gw := &gateway.Gateway{
		Classifier: &insert.Classifier{Router: router, TSMin: cfg.TSMin, TSMax: cfg.TSMax},
		Dispatcher: d,
		Table:      table,
		LocalPool:  cfg.PoolID,
	}

	server := &netpkg.Server{
		BindAddr: cfg.BindAddr,
		BindPort: cfg.BindPort + 1,
		Handler:  gw,
	}

	if cfg.PeerSecret != "" {
		secret, err := netpkg.NewPeerSecret(cfg.PeerSecret)
		if err != nil {
			log.Fatalf("[Main] failed to hash peer secret: %s", err)
		}
		server.Secret = secret
	}

	log.Printf("[Main] siridbd pool %d of %d starting on %s:%d", cfg.PoolID, cfg.PoolCount, cfg.BindAddr, server.BindPort)
	log.Fatalf("[Main] server stopped: %s", server.ListenAndServe())
}

type tableStatusDelegate struct {
	table *cluster.Table
}

func (t tableStatusDelegate) NotifyPoolStatus(poolID uint16, status int) {
	t.table.UpdateStatus(poolID, status)
}

// localStorage is a placeholder append sink until a real on-disk shard
// engine is wired in. The shard engine itself is an external
// collaborator this process talks to, not something it implements.
type localStorage struct{}

func (localStorage) Append(handle interface{}, timestampMS int64, value interface{}) error {
	return nil
}
