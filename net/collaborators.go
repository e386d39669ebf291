package net

import "context"

// Ack is returned by Transport.Send on a successful remote write.
type Ack struct {
	PoolID uint16
}

// Transport sends a pool sub-batch package to that pool's primary
// replica and resolves with an ack or an error. It is the only way
// pools talk to each other; the insert core never opens a socket
// itself.
type Transport interface {
	Send(ctx context.Context, poolID uint16, pkg *Package) (Ack, error)
}

// Storage appends a single point to the series behind handle. handle
// comes from a SeriesRegistry get-or-create call. Storage is an
// external collaborator: the on-disk shard engine is out of scope here.
type Storage interface {
	Append(handle interface{}, timestampMS int64, value interface{}) error
}

// ReplyChannel is the originating client connection a job's single
// reply is written back to. Implementations must treat Reply as
// idempotent-safe to call at most once per job; the dispatcher
// guarantees it is only ever called once.
type ReplyChannel interface {
	Reply(pkg *Package) error
}
