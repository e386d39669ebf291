package qpack

import (
	"encoding/binary"
	"math"
)

// Decoder is a pull parser over a byte slice. Next advances exactly one
// token and, for scalar tokens, fills Int64Val, DoubleVal or RawVal.
//
// RawVal is a slice borrowed from the buffer passed to NewDecoder: it is
// only valid for as long as that buffer is not reused or mutated.
// Decoder never allocates while reading scalars.
type Decoder struct {
	buf       []byte
	pos       int
	Int64Val  int64
	DoubleVal float64
	RawVal    []byte
}

// NewDecoder wraps buf. The caller owns buf's lifetime.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Next reads the next token from the stream.
func (d *Decoder) Next() (Token, error) {
	if d.pos >= len(d.buf) {
		return TokenEnd, ErrMalformed
	}
	tag := d.buf[d.pos]
	d.pos++

	switch tag {
	case tagEnd:
		return TokenEnd, nil
	case tagArrayOpen:
		return TokenArrayOpen, nil
	case tagArrayClose:
		return TokenArrayClose, nil
	case tagMapOpen:
		return TokenMapOpen, nil
	case tagMapClose:
		return TokenMapClose, nil
	case tagArray1:
		return TokenArray1, nil
	case tagArray2:
		return TokenArray2, nil
	case tagArray3:
		return TokenArray3, nil
	case tagArray4:
		return TokenArray4, nil
	case tagArray5:
		return TokenArray5, nil
	case tagInt64:
		if d.pos+8 > len(d.buf) {
			return TokenEnd, ErrMalformed
		}
		d.Int64Val = int64(binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8]))
		d.pos += 8
		return TokenInt64, nil
	case tagDouble:
		if d.pos+8 > len(d.buf) {
			return TokenEnd, ErrMalformed
		}
		bits := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
		d.DoubleVal = math.Float64frombits(bits)
		d.pos += 8
		return TokenDouble, nil
	case tagRaw:
		n, err := d.readLength()
		if err != nil {
			return TokenEnd, err
		}
		if d.pos+n > len(d.buf) {
			return TokenEnd, ErrMalformed
		}
		d.RawVal = d.buf[d.pos : d.pos+n]
		d.pos += n
		return TokenRaw, nil
	case tagRawTerm:
		end := d.pos
		for end < len(d.buf) && d.buf[end] != 0 {
			end++
		}
		if end >= len(d.buf) {
			return TokenEnd, ErrMalformed
		}
		d.RawVal = d.buf[d.pos:end]
		d.pos = end + 1
		return TokenRaw, nil
	default:
		return TokenEnd, ErrMalformed
	}
}

func (d *Decoder) readLength() (int, error) {
	if d.pos >= len(d.buf) {
		return 0, ErrMalformed
	}
	b := d.buf[d.pos]
	d.pos++
	switch {
	case b <= lenSmallMax:
		return int(b), nil
	case b == len16Marker:
		if d.pos+2 > len(d.buf) {
			return 0, ErrMalformed
		}
		n := binary.BigEndian.Uint16(d.buf[d.pos : d.pos+2])
		d.pos += 2
		return int(n), nil
	case b == len32Marker:
		if d.pos+4 > len(d.buf) {
			return 0, ErrMalformed
		}
		n := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
		d.pos += 4
		return int(n), nil
	default:
		return 0, ErrMalformed
	}
}

// Pos returns the current read offset, mostly useful for tests.
func (d *Decoder) Pos() int { return d.pos }

// IsArray reports whether t is any of the array tokens (fixed or open).
func IsArray(t Token) bool {
	return t == TokenArrayOpen || (t >= TokenArray1 && t <= TokenArray5)
}

// IsMap reports whether t is a map-open token.
func IsMap(t Token) bool {
	return t == TokenMapOpen
}
