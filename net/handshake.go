package net

import (
	"fmt"
	"io"
	stdnet "net"

	"golang.org/x/crypto/bcrypt"
)

// PeerSecret verifies the shared secret pools present to each other
// when a transport connection is first established. Client
// authentication is an external collaborator's job and out of scope;
// pool-to-pool transport authentication belongs here since two pools
// dialing each other is squarely in the insert pipeline's domain.
type PeerSecret struct {
	hash []byte
}

// NewPeerSecret hashes plaintext for storage in configuration.
func NewPeerSecret(plaintext string) (*PeerSecret, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &PeerSecret{hash: hash}, nil
}

// Verify checks a peer-presented secret against the stored hash.
func (s *PeerSecret) Verify(candidate string) bool {
	return bcrypt.CompareHashAndPassword(s.hash, []byte(candidate)) == nil
}

const maxSecretLen = 255

// writeSecret sends a length-prefixed plaintext secret frame, the
// handshake step a dialing peer performs immediately after connect.
func writeSecret(conn stdnet.Conn, plaintext string) error {
	if len(plaintext) > maxSecretLen {
		return fmt.Errorf("peer secret too long: %d bytes", len(plaintext))
	}
	frame := make([]byte, 1+len(plaintext))
	frame[0] = byte(len(plaintext))
	copy(frame[1:], plaintext)
	_, err := conn.Write(frame)
	return err
}

// readSecret reads a length-prefixed plaintext secret frame, the
// handshake step an accepting peer performs before entering its normal
// package-framing loop.
func readSecret(conn stdnet.Conn) (string, error) {
	var lenBuf [1]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return "", err
	}
	buf := make([]byte, lenBuf[0])
	if len(buf) > 0 {
		if _, err := io.ReadFull(conn, buf); err != nil {
			return "", err
		}
	}
	return string(buf), nil
}
