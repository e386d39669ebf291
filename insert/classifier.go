package insert

import (
	"github.com/teotikalki/siridb-server/cluster"
	"github.com/teotikalki/siridb-server/qpack"
)

// Result is the output of a successful classification: the total point
// count across every series in the payload, and one encoded wire map
// per pool that had at least one point routed to it. Pools with no
// points routed to them are absent from SubBatches: empty sub-batches
// are never transmitted.
type Result struct {
	PointCount int
	SubBatches map[uint16][]byte
}

// Classifier consumes a decoded top-level client payload and produces
// one outbound sub-batch per pool, validating each point along the way.
type Classifier struct {
	Router *cluster.Router
	TSMin  int64
	TSMax  int64
}

// Classify runs the full decode-route-repack pass over payload. On any
// validation failure it returns the first error encountered and no
// partial result: callers must discard any encoders built so far (here,
// that's simply not returning them).
func (c *Classifier) Classify(payload []byte) (*Result, error) {
	dec := qpack.NewDecoder(payload)
	tok, err := dec.Next()
	if err != nil {
		return nil, err
	}

	switch {
	case qpack.IsMap(tok):
		return c.classifyMap(dec)
	case qpack.IsArray(tok):
		// Flat-array top level is accepted but currently produces no
		// per-pool output; reserved for future use.
		return &Result{PointCount: 0, SubBatches: map[uint16][]byte{}}, nil
	default:
		return nil, ErrExpectingMapOrArray
	}
}

func (c *Classifier) classifyMap(dec *qpack.Decoder) (*Result, error) {
	packers := map[uint16]*qpack.Encoder{}
	count := 0

	tok, err := dec.Next()
	if err != nil {
		return nil, err
	}

	for tok == qpack.TokenRaw {
		seriesName := dec.RawVal
		if len(seriesName) == 0 {
			return nil, ErrExpectingSeriesNameAndPoints
		}

		poolID, routeErr := c.Router.PoolOf(seriesName)
		if routeErr != nil {
			return nil, ErrExpectingSeriesNameAndPoints
		}
		packer := c.packerFor(packers, poolID)
		packer.PushRawTerm(seriesName)

		tok, err = dec.Next()
		if err != nil {
			return nil, err
		}
		if !qpack.IsArray(tok) {
			return nil, ErrExpectingArrayOfPoints
		}
		packer.OpenArray()

		tok, err = dec.Next()
		if err != nil {
			return nil, err
		}
		if tok != qpack.TokenArray2 {
			return nil, ErrExpectingAtLeastOnePoint
		}

		for tok == qpack.TokenArray2 {
			packer.Array(2)

			tok, err = dec.Next()
			if err != nil {
				return nil, err
			}
			if tok != qpack.TokenInt64 {
				return nil, ErrExpectingIntegerTS
			}
			ts := dec.Int64Val
			if ts < c.TSMin || ts > c.TSMax {
				return nil, ErrTimestampOutOfRange
			}
			packer.PushInt(ts)

			tok, err = dec.Next()
			if err != nil {
				return nil, err
			}
			switch tok {
			case qpack.TokenRaw:
				packer.PushRaw(dec.RawVal)
			case qpack.TokenInt64:
				packer.PushInt(dec.Int64Val)
			case qpack.TokenDouble:
				packer.PushDouble(dec.DoubleVal)
			default:
				return nil, ErrUnsupportedValue
			}
			count++

			tok, err = dec.Next()
			if err != nil {
				return nil, err
			}
		}

		if tok == qpack.TokenArrayClose {
			tok, err = dec.Next()
			if err != nil {
				return nil, err
			}
		}
		packer.CloseArray()
	}

	if tok != qpack.TokenEnd && tok != qpack.TokenMapClose {
		return nil, ErrExpectingSeriesNameAndPoints
	}

	subBatches := make(map[uint16][]byte, len(packers))
	for poolID, packer := range packers {
		packer.CloseMap()
		subBatches[poolID] = packer.Bytes()
	}
	return &Result{PointCount: count, SubBatches: subBatches}, nil
}

// packerFor returns the pool's encoder, allocating and opening it lazily
// on first use. Pre-sizing one encoder per pool wastes memory on large
// clusters where most pools see no traffic from a given payload.
func (c *Classifier) packerFor(packers map[uint16]*qpack.Encoder, poolID uint16) *qpack.Encoder {
	packer, ok := packers[poolID]
	if !ok {
		packer = qpack.NewEncoder(256)
		packer.OpenMap()
		packers[poolID] = packer
	}
	return packer
}
