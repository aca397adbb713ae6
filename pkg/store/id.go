package store

import "sync/atomic"

// subscriptionIDCounter is the source of unique subscription IDs.
var subscriptionIDCounter uint64

// nextID returns the next unique subscription ID. IDs are never reused.
func nextID() uint64 {
	return atomic.AddUint64(&subscriptionIDCounter, 1)
}
