package dispatch

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID extracts the running goroutine's numeric id by
// parsing the header line of runtime.Stack's output ("goroutine 37
// [running]:"). No repo in the retrieval pack imports a goroutine-id
// library (e.g. petermattis/goid), so this ~15-line stdlib-only parse
// is used instead of introducing an ungrounded dependency — see
// DESIGN.md. It is only ever used for the IsCurrentThread/Deadlock
// check (spec.md §5), never on a hot path.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
