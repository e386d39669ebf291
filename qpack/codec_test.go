package qpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeScalars(t *testing.T) {
	e := NewEncoder(64)
	e.OpenMap()
	e.PushRawTerm([]byte("cpu.load"))
	e.OpenArray()
	e.Array(2)
	e.PushInt(1000)
	e.PushDouble(0.5)
	e.CloseArray()
	e.CloseMap()
	e.End()

	d := NewDecoder(e.Bytes())

	tok, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenMapOpen, tok)

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenRaw, tok)
	assert.Equal(t, "cpu.load", string(d.RawVal))

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenArrayOpen, tok)

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenArray2, tok)

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenInt64, tok)
	assert.EqualValues(t, 1000, d.Int64Val)

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenDouble, tok)
	assert.InDelta(t, 0.5, d.DoubleVal, 1e-9)

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenArrayClose, tok)

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenMapClose, tok)

	tok, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenEnd, tok)
}

func TestRawLengthPrefixedRoundTrip(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = byte('a' + i%26)
	}

	e := NewEncoder(512)
	e.PushRaw(long)
	e.End()

	d := NewDecoder(e.Bytes())
	tok, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenRaw, tok)
	assert.Equal(t, long, d.RawVal)
}

func TestNegativeInt64RoundTrip(t *testing.T) {
	e := NewEncoder(32)
	e.PushInt(-5)
	e.End()

	d := NewDecoder(e.Bytes())
	tok, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenInt64, tok)
	assert.EqualValues(t, -5, d.Int64Val)
}

func TestDecodeTruncatedInputIsMalformed(t *testing.T) {
	e := NewEncoder(16)
	e.PushInt(42)
	buf := e.Bytes()[:3] // chop the int64 payload short

	d := NewDecoder(buf)
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeUnknownTagIsMalformed(t *testing.T) {
	d := NewDecoder([]byte{0xff})
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeEmptyBufferIsMalformed(t *testing.T) {
	d := NewDecoder(nil)
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrMalformed)
}
