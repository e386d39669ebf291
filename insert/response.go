package insert

import (
	"fmt"
	"strings"

	"github.com/teotikalki/siridb-server/qpack"
)

// PackSuccess builds the wire body for a fully-acknowledged insert: a
// one-entry map {"success_msg": "Inserted N point(s) successfully."}.
// This exact phrasing is part of the wire contract client libraries
// parse on.
func PackSuccess(pointCount int) []byte {
	return packMessage("success_msg", fmt.Sprintf("Inserted %d point(s) successfully.", pointCount))
}

// PackError builds the wire body for a failed or partially-failed
// insert: a one-entry map {"error_msg": "<prose>"}.
func PackError(message string) []byte {
	return packMessage("error_msg", message)
}

func packMessage(key, value string) []byte {
	e := qpack.NewEncoder(64 + len(value))
	e.OpenMap()
	e.PushRawTerm([]byte(key))
	e.PushRaw([]byte(value))
	e.CloseMap()
	e.End()
	return e.Bytes()
}

// PartialFailureMessage builds the error prose for §4.4/§7's partial
// success case: some pools acknowledged, some failed. Successfully
// written pools are never rolled back; the message reports the
// remaining successful point count alongside the failing pools.
func PartialFailureMessage(successfulPoints int, failingPools []uint16) string {
	names := make([]string, len(failingPools))
	for i, id := range failingPools {
		names[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf(
		"Failed to write to pool(s) %s. %d point(s) were successfully inserted in the remaining pool(s).",
		strings.Join(names, ", "),
		successfulPoints,
	)
}
