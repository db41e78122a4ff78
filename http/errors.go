package http

import "errors"

// Cancellation causes fed into a stream's context. The copy loop reads
// them back through context.Cause to tell a watchdog kill from a fetch
// deadline from an ordinary client disconnect.
var (
	errStreamIdle   = errors.New("stream idle timeout")
	errFetchTimeout = errors.New("data handle acquisition timeout")
)
