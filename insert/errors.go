package insert

// ErrCode enumerates the classification errors surfaced over the wire.
// Text matches the canonical prose clients already parse on.
type ErrCode int

const (
	ErrExpectingArrayOfPoints ErrCode = iota
	ErrExpectingSeriesNameAndPoints
	ErrExpectingMapOrArray
	ErrExpectingIntegerTS
	ErrTimestampOutOfRange
	ErrUnsupportedValue
	ErrExpectingAtLeastOnePoint
)

var errMessages = [...]string{
	"Expecting an array with points.",
	"Expecting a series name (string value) with an array of points where " +
		"each point should be an integer time-stamp with a value.",
	"Expecting an array or map containing series and points.",
	"Expecting an integer value as time-stamp.",
	"Received at least one time-stamp which is out-of-range.",
	"Unsupported value received. (only integer, string and float values " +
		"are supported).",
	"Expecting a series to have at least one point.",
}

func (e ErrCode) Error() string {
	if int(e) < 0 || int(e) >= len(errMessages) {
		return "unknown insert error"
	}
	return errMessages[e]
}
