package net

import (
	"io"
	"log"
	stdnet "net"
	"strconv"
	"sync"
)

// Handler processes one request package for a connection and returns
// the response package to write back. Implemented by the insert core's
// request entrypoint.
type Handler interface {
	Handle(conn *Conn, pkg *Package) *Package
}

// Conn wraps a single client connection. It implements ReplyChannel so
// a dispatch job can write its single reply directly back to the
// originating socket.
type Conn struct {
	raw stdnet.Conn
	mu  sync.Mutex
}

// Reply writes pkg to the connection. Safe to call from any goroutine;
// writes are serialized so a concurrent pair of jobs on the same
// connection can't interleave their frames.
func (c *Conn) Reply(pkg *Package) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.raw.Write(pkg.Encode())
	return err
}

// Server accepts client connections on BindAddr and feeds decoded
// packages to Handler, one goroutine per connection, mirroring
// cluster.Handle's "log then accept" startup shape.
type Server struct {
	BindAddr string
	BindPort int
	Handler  Handler

	// Secret, if non-nil, is verified against every accepted
	// connection's handshake frame before any Package is read.
	Secret *PeerSecret
}

// ListenAndServe blocks accepting connections until the listener
// errors or is closed.
func (s *Server) ListenAndServe() error {
	ln, err := stdnet.Listen("tcp", stdnet.JoinHostPort(s.BindAddr, strconv.Itoa(s.BindPort)))
	if err != nil {
		return err
	}
	log.Printf("[Net] Listening on %s:%d", s.BindAddr, s.BindPort)
	for {
		raw, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.serve(&Conn{raw: raw})
	}
}

func (s *Server) serve(conn *Conn) {
	defer conn.raw.Close()
	if s.Secret != nil {
		candidate, err := readSecret(conn.raw)
		if err != nil {
			log.Printf("[Net] handshake read failed from %s: %s", conn.raw.RemoteAddr(), err)
			return
		}
		if !s.Secret.Verify(candidate) {
			log.Printf("[Net] handshake rejected from %s", conn.raw.RemoteAddr())
			return
		}
	}
	header := make([]byte, HeaderSize)
	for {
		if _, err := io.ReadFull(conn.raw, header); err != nil {
			return
		}
		h, err := DecodeHeader(header)
		if err != nil {
			log.Printf("[Net] bad header from %s: %s", conn.raw.RemoteAddr(), err)
			return
		}
		body := make([]byte, h.BodyLength)
		if h.BodyLength > 0 {
			if _, err := io.ReadFull(conn.raw, body); err != nil {
				return
			}
		}
		pkg := &Package{Header: h, Body: body}
		if resp := s.Handler.Handle(conn, pkg); resp != nil {
			if err := conn.Reply(resp); err != nil {
				return
			}
		}
	}
}

