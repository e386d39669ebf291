package qpack

import "errors"

// ErrMalformed is returned by the decoder on truncated input, an unknown
// tag byte, or a structurally impossible sequence (e.g. a length prefix
// that runs past the end of the buffer).
var ErrMalformed = errors.New("qpack: malformed input")
