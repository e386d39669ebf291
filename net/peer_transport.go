package net

import (
	"context"
	"fmt"
	"io"
	stdnet "net"
	"sync"
)

// PeerTransport sends sub-batches to other pools' primary replicas over
// plain TCP connections, one persistent connection per pool, reconnecting
// lazily on first use or after a broken write.
type PeerTransport struct {
	// Addrs maps a pool id to its primary replica's dial address.
	Addrs map[uint16]string

	// Secret, if non-empty, is presented to the accepting peer right
	// after dialing, before any Package is written.
	Secret string

	mu    sync.Mutex
	conns map[uint16]stdnet.Conn
}

// NewPeerTransport builds a transport over the given pool address table.
func NewPeerTransport(addrs map[uint16]string) *PeerTransport {
	return &PeerTransport{Addrs: addrs, conns: map[uint16]stdnet.Conn{}}
}

// Send writes pkg to poolID's primary and reads back its single reply
// package, honoring ctx's deadline for both the dial and the round trip.
func (t *PeerTransport) Send(ctx context.Context, poolID uint16, pkg *Package) (Ack, error) {
	conn, err := t.connFor(ctx, poolID)
	if err != nil {
		return Ack{}, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(pkg.Encode()); err != nil {
		t.drop(poolID)
		return Ack{}, err
	}

	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		t.drop(poolID)
		return Ack{}, err
	}
	h, err := DecodeHeader(header)
	if err != nil {
		t.drop(poolID)
		return Ack{}, err
	}
	body := make([]byte, h.BodyLength)
	if h.BodyLength > 0 {
		if _, err := io.ReadFull(conn, body); err != nil {
			t.drop(poolID)
			return Ack{}, err
		}
	}
	if h.Type == TypeResInsertError {
		return Ack{}, fmt.Errorf("peer pool %d: %s", poolID, body)
	}
	return Ack{PoolID: poolID}, nil
}

func (t *PeerTransport) connFor(ctx context.Context, poolID uint16) (stdnet.Conn, error) {
	t.mu.Lock()
	if conn, ok := t.conns[poolID]; ok {
		t.mu.Unlock()
		return conn, nil
	}
	t.mu.Unlock()

	addr, ok := t.Addrs[poolID]
	if !ok {
		return nil, fmt.Errorf("no address known for pool %d", poolID)
	}
	var dialer stdnet.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if t.Secret != "" {
		if err := writeSecret(conn, t.Secret); err != nil {
			conn.Close()
			return nil, fmt.Errorf("handshake with pool %d: %w", poolID, err)
		}
	}

	t.mu.Lock()
	t.conns[poolID] = conn
	t.mu.Unlock()
	return conn, nil
}

func (t *PeerTransport) drop(poolID uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if conn, ok := t.conns[poolID]; ok {
		conn.Close()
		delete(t.conns, poolID)
	}
}
