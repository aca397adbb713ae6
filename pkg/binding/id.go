package binding

import "sync/atomic"

// idCounter is the source of scope and widget IDs.
var idCounter uint64

// nextID returns the next unique ID. IDs are never reused.
func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}
