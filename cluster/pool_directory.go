package cluster

import (
	"context"
	"strconv"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const etcdDirBase = "siridb"
const etcdDirPools = "pools"

// PoolDirectory resolves pool id -> primary replica address. It is the
// clustered collaborator behind a Table: on startup a Table is seeded
// from Get, then kept live by Watch.
type PoolDirectory interface {
	Get() (map[uint16]string, error)
	Assign(poolID uint16, addr string) error
}

// EtcdPoolDirectory stores the pool address assignment in etcd, mirroring
// a simple hierarchical path layout under the cluster id.
type EtcdPoolDirectory struct {
	ClusterID string
	Client    *clientv3.Client
}

// NewEtcdPoolDirectory dials etcd at the given endpoints.
func NewEtcdPoolDirectory(clusterID string, endpoints []string) (*EtcdPoolDirectory, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdPoolDirectory{ClusterID: clusterID, Client: c}, nil
}

func (s *EtcdPoolDirectory) path(poolID uint16) string {
	return etcdDirBase + "/" + s.ClusterID + "/" + etcdDirPools + "/" + strconv.Itoa(int(poolID))
}

func (s *EtcdPoolDirectory) prefix() string {
	return etcdDirBase + "/" + s.ClusterID + "/" + etcdDirPools + "/"
}

// Assign records that poolID's primary replica is reachable at addr.
func (s *EtcdPoolDirectory) Assign(poolID uint16, addr string) error {
	_, err := s.Client.Put(context.Background(), s.path(poolID), addr)
	return err
}

// Get returns every pool id -> address assignment currently stored.
func (s *EtcdPoolDirectory) Get() (map[uint16]string, error) {
	resp, err := s.Client.Get(context.Background(), s.prefix(), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}
	out := map[uint16]string{}
	for _, kv := range resp.Kvs {
		parts := strings.Split(string(kv.Key), "/")
		id, convErr := strconv.Atoi(parts[len(parts)-1])
		if convErr != nil {
			continue
		}
		out[uint16(id)] = string(kv.Value)
	}
	return out, nil
}

// Watch streams future pool assignment changes.
func (s *EtcdPoolDirectory) Watch() clientv3.WatchChan {
	return s.Client.Watch(context.Background(), s.prefix(), clientv3.WithPrefix())
}

// LoadTable populates table from the directory's current assignment.
func LoadTable(dir PoolDirectory, table *Table) error {
	assignments, err := dir.Get()
	if err != nil {
		return err
	}
	for id, addr := range assignments {
		table.Put(&Pool{ID: id, PrimaryAddr: addr, Status: PoolStatusUp})
	}
	return nil
}

// WatchTable consumes dir's Watch stream and applies each assignment
// change to table, keeping it live after the initial LoadTable seed.
// It blocks until ctx is cancelled or the watch channel closes, so
// callers run it in its own goroutine.
func WatchTable(ctx context.Context, dir *EtcdPoolDirectory, table *Table) {
	watch := dir.Watch()
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-watch:
			if !ok {
				return
			}
			for _, ev := range resp.Events {
				parts := strings.Split(string(ev.Kv.Key), "/")
				id, err := strconv.Atoi(parts[len(parts)-1])
				if err != nil {
					continue
				}
				if ev.Type == clientv3.EventTypeDelete {
					table.Remove(uint16(id))
					continue
				}
				table.Put(&Pool{ID: uint16(id), PrimaryAddr: string(ev.Kv.Value), Status: PoolStatusUp})
			}
		}
	}
}
