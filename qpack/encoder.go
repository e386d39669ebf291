package qpack

import (
	"encoding/binary"
	"math"
)

// Encoder appends tokens to a growable buffer. It never inspects the
// contents it is given; callers are responsible for producing a
// well-formed stream (balanced open/close pairs, a trailing End).
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder. size hints the initial capacity.
func NewEncoder(size int) *Encoder {
	return &Encoder{buf: make([]byte, 0, size)}
}

// Bytes returns the encoded stream so far. The slice is owned by the
// encoder and is invalidated by further writes.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

func (e *Encoder) OpenMap()    { e.buf = append(e.buf, tagMapOpen) }
func (e *Encoder) CloseMap()   { e.buf = append(e.buf, tagMapClose) }
func (e *Encoder) OpenArray()  { e.buf = append(e.buf, tagArrayOpen) }
func (e *Encoder) CloseArray() { e.buf = append(e.buf, tagArrayClose) }
func (e *Encoder) End()        { e.buf = append(e.buf, tagEnd) }

// Array writes a fixed-arity array header for n in 1..5.
func (e *Encoder) Array(n int) {
	if n < 1 || n > 5 {
		panic("qpack: fixed array arity must be in 1..5")
	}
	e.buf = append(e.buf, tagArray1+uint8(n-1))
}

func (e *Encoder) PushInt(v int64) {
	e.buf = append(e.buf, tagInt64)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	e.buf = append(e.buf, tmp[:]...)
}

func (e *Encoder) PushDouble(v float64) {
	e.buf = append(e.buf, tagDouble)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
	e.buf = append(e.buf, tmp[:]...)
}

// PushRaw writes a length-prefixed byte string.
func (e *Encoder) PushRaw(b []byte) {
	e.buf = append(e.buf, tagRaw)
	e.writeLength(len(b))
	e.buf = append(e.buf, b...)
}

// PushRawTerm writes a NUL-terminated byte string without a length
// prefix. b must not contain a NUL byte; this is the fast path used for
// series names, which never do.
func (e *Encoder) PushRawTerm(b []byte) {
	e.buf = append(e.buf, tagRawTerm)
	e.buf = append(e.buf, b...)
	e.buf = append(e.buf, 0)
}

func (e *Encoder) writeLength(n int) {
	switch {
	case n <= lenSmallMax:
		e.buf = append(e.buf, uint8(n))
	case n <= 0xffff:
		e.buf = append(e.buf, len16Marker)
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], uint16(n))
		e.buf = append(e.buf, tmp[:]...)
	default:
		e.buf = append(e.buf, len32Marker)
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], uint32(n))
		e.buf = append(e.buf, tmp[:]...)
	}
}
