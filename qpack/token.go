// Package qpack implements the tagged binary wire format used between
// SiriDB clients, servers and pools: a streaming pull-parser decoder and
// a mirrored append-only encoder.
package qpack

// Token identifies the kind of value the decoder just read.
type Token uint8

const (
	TokenEnd Token = iota
	TokenArrayOpen
	TokenArrayClose
	TokenMapOpen
	TokenMapClose
	TokenArray1
	TokenArray2
	TokenArray3
	TokenArray4
	TokenArray5
	TokenInt64
	TokenDouble
	TokenRaw
)

func (t Token) String() string {
	switch t {
	case TokenEnd:
		return "END"
	case TokenArrayOpen:
		return "ARRAY_OPEN"
	case TokenArrayClose:
		return "ARRAY_CLOSE"
	case TokenMapOpen:
		return "MAP_OPEN"
	case TokenMapClose:
		return "MAP_CLOSE"
	case TokenArray1, TokenArray2, TokenArray3, TokenArray4, TokenArray5:
		return "ARRAYn"
	case TokenInt64:
		return "INT64"
	case TokenDouble:
		return "DOUBLE"
	case TokenRaw:
		return "RAW"
	default:
		return "UNKNOWN"
	}
}

// arrayToken returns the fixed-arity array token for n in 1..5.
func arrayToken(n int) Token {
	return TokenArray1 + Token(n-1)
}

// the on-the-wire tag bytes. Kept distinct from Token values so the wire
// layout can evolve independently of the decoder's public enum.
const (
	tagEnd uint8 = iota
	tagArrayOpen
	tagArrayClose
	tagMapOpen
	tagMapClose
	tagArray1
	tagArray2
	tagArray3
	tagArray4
	tagArray5
	tagInt64
	tagDouble
	tagRaw
	tagRawTerm
)

// length markers for the compact length prefix used by tagRaw.
const (
	lenSmallMax  = 0xfa - 1 // values 0..249 are encoded as a single byte
	len16Marker  = 0xfa
	len32Marker  = 0xfb
)
