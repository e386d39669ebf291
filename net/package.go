// Package net implements the transport-level package framing used
// between clients, pools and peers, plus the collaborator interfaces
// the insert core depends on but does not implement itself.
package net

import (
	"encoding/binary"
	"errors"
)

// Package types relevant to the insert pipeline.
const (
	TypeReqInsert uint8 = iota
	TypeResInsertSuccess
	TypeResInsertError
)

// HeaderSize is the fixed size, in bytes, of a wire package header.
const HeaderSize = 8

// ErrBadTypeCheck is returned when a header's type_check byte does not
// match type XOR 0xFF, which signals corruption or a protocol mismatch.
var ErrBadTypeCheck = errors.New("net: type_check does not match type")

// ErrTruncatedHeader is returned when fewer than HeaderSize bytes are
// available to decode a header.
var ErrTruncatedHeader = errors.New("net: truncated package header")

// Header is the fixed package header preceding every wire package body.
// Layout, little-endian: request_id u16, body_length u32, type u8,
// type_check u8.
type Header struct {
	RequestID  uint16
	BodyLength uint32
	Type       uint8
}

// Encode writes the header, including its computed type_check byte.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.RequestID)
	binary.LittleEndian.PutUint32(buf[2:6], h.BodyLength)
	buf[6] = h.Type
	buf[7] = h.Type ^ 0xFF
	return buf
}

// DecodeHeader parses a header from buf and validates its type_check.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrTruncatedHeader
	}
	h := Header{
		RequestID:  binary.LittleEndian.Uint16(buf[0:2]),
		BodyLength: binary.LittleEndian.Uint32(buf[2:6]),
		Type:       buf[6],
	}
	if buf[7] != h.Type^0xFF {
		return Header{}, ErrBadTypeCheck
	}
	return h, nil
}

// Package is a full wire package: header plus body.
type Package struct {
	Header Header
	Body   []byte
}

// NewPackage builds a package with a correctly computed header.
func NewPackage(requestID uint16, pkgType uint8, body []byte) *Package {
	return &Package{
		Header: Header{RequestID: requestID, BodyLength: uint32(len(body)), Type: pkgType},
		Body:   body,
	}
}

// Encode serializes the package to its wire form (header followed by body).
func (p *Package) Encode() []byte {
	out := make([]byte, 0, HeaderSize+len(p.Body))
	out = append(out, p.Header.Encode()...)
	out = append(out, p.Body...)
	return out
}
