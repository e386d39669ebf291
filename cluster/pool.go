package cluster

import "log"

// PoolStatus tracks the liveness of a pool's primary replica, as
// reported by the membership layer.
const (
	PoolStatusUnknown = iota
	PoolStatusUp
	PoolStatusJoining
	PoolStatusRecovering
)

// Pool is one replication group owning a disjoint slice of the series
// keyspace. Only the primary replica's address is tracked here; the
// insert core only ever talks to the primary, per spec.
type Pool struct {
	ID          uint16
	Name        string
	PrimaryAddr string
	Status      int
}

// IsLocal reports whether this pool is the one the running process
// belongs to, i.e. whether inserts routed to it should go through the
// series registry/storage path instead of the transport.
func (p *Pool) IsLocal(localPoolID uint16) bool {
	return p.ID == localPoolID
}

// Table is the in-memory view of all pools in the cluster, keyed by
// pool id. It is populated from a PoolDirectory by LoadTable, kept live
// by WatchTable, and receives pool status changes from Membership.
type Table struct {
	pools map[uint16]*Pool
}

func NewTable() *Table {
	return &Table{pools: map[uint16]*Pool{}}
}

func (t *Table) Put(p *Pool) {
	t.pools[p.ID] = p
}

func (t *Table) Get(id uint16) (*Pool, bool) {
	p, ok := t.pools[id]
	return p, ok
}

func (t *Table) Remove(id uint16) {
	delete(t.pools, id)
}

func (t *Table) All() []*Pool {
	out := make([]*Pool, 0, len(t.pools))
	for _, p := range t.pools {
		out = append(out, p)
	}
	return out
}

// UpdateStatus applies a liveness change reported by the membership
// layer. Unknown pool ids are logged and ignored rather than treated as
// fatal: a stale gossip message about a pool that has since been
// removed is expected during a rebalance.
func (t *Table) UpdateStatus(id uint16, status int) {
	p, ok := t.pools[id]
	if !ok {
		log.Printf("[cluster] status update for unknown pool %d ignored", id)
		return
	}
	p.Status = status
}
