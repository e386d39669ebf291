package dispatch

import "github.com/teotikalki/siridb-server/qpack"

// pointVisitor is called once per (timestamp, value) pair found while
// walking a sub-batch. value is an int64, float64 or []byte.
type pointVisitor func(seriesName []byte, timestampMS int64, value interface{}) error

// walkSubBatch decodes a pool sub-batch — the exact wire map the
// classifier or a peer produced — visiting every point in order.
// Local-pool processing performs this decode deliberately, even though
// it just encoded the same bytes: it keeps the local and remote paths
// symmetric.
func walkSubBatch(subBatch []byte, visit pointVisitor) (count int, err error) {
	dec := qpack.NewDecoder(subBatch)

	tok, err := dec.Next()
	if err != nil {
		return 0, err
	}
	if tok != qpack.TokenMapOpen {
		return 0, qpack.ErrMalformed
	}

	tok, err = dec.Next()
	if err != nil {
		return 0, err
	}

	for tok == qpack.TokenRaw {
		name := dec.RawVal

		tok, err = dec.Next() // ARRAY_OPEN
		if err != nil {
			return count, err
		}
		if tok != qpack.TokenArrayOpen {
			return count, qpack.ErrMalformed
		}

		tok, err = dec.Next() // first point or close
		if err != nil {
			return count, err
		}

		for tok == qpack.TokenArray2 {
			tok, err = dec.Next()
			if err != nil {
				return count, err
			}
			if tok != qpack.TokenInt64 {
				return count, qpack.ErrMalformed
			}
			ts := dec.Int64Val

			tok, err = dec.Next()
			if err != nil {
				return count, err
			}
			var value interface{}
			switch tok {
			case qpack.TokenInt64:
				value = dec.Int64Val
			case qpack.TokenDouble:
				value = dec.DoubleVal
			case qpack.TokenRaw:
				value = append([]byte(nil), dec.RawVal...)
			default:
				return count, qpack.ErrMalformed
			}

			if visit != nil {
				if err := visit(name, ts, value); err != nil {
					return count, err
				}
			}
			count++

			tok, err = dec.Next()
			if err != nil {
				return count, err
			}
		}

		if tok == qpack.TokenArrayClose {
			tok, err = dec.Next()
			if err != nil {
				return count, err
			}
		}
	}

	return count, nil
}
