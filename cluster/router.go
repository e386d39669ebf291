package cluster

import "errors"

// ErrEmptySeriesName is returned by PoolOf for a zero-length series name.
// Per the insert pipeline's contract this never happens in practice: the
// batch classifier rejects empty series names before routing is
// attempted.
var ErrEmptySeriesName = errors.New("cluster: series name must not be empty")

// Router maps a series name to the pool that owns it. It is pure,
// deterministic and side-effect free: the same (hasher, poolCount) pair
// must always produce the same pool for a given name, for the life of
// the cluster. Changing poolCount or Hasher without a rebalance
// scatters existing series across the wrong pools.
type Router struct {
	hasher    Hasher
	poolCount uint16
}

// NewRouter builds a Router over poolCount pools using hasher. poolCount
// must be >= 1.
func NewRouter(hasher Hasher, poolCount uint16) *Router {
	if poolCount == 0 {
		poolCount = 1
	}
	return &Router{hasher: hasher, poolCount: poolCount}
}

// PoolOf returns the id of the pool owning name.
func (r *Router) PoolOf(name []byte) (uint16, error) {
	if len(name) == 0 {
		return 0, ErrEmptySeriesName
	}
	return uint16(r.hasher.Hash(name) % uint32(r.poolCount)), nil
}

// PoolCount returns the number of pools the router was built for.
func (r *Router) PoolCount() uint16 { return r.poolCount }
