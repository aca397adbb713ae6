package store

// Batch runs fn and defers the notifications of every Set made inside it,
// on the calling goroutine, until fn returns. Values are visible to Get
// immediately. Batches can be nested; delivery happens when the outermost
// one completes, even if fn panics.
//
// Notifications are not coalesced: each write inside the batch is delivered
// to its subscribers, in write order. Like an outermost Set, an outermost
// Batch holds off writes from other goroutines until it has delivered.
//
// Example:
//
//	st.Batch(func() {
//	    st.Set("amplitude", value.Number(2))
//	    st.Set("frequency", value.Number(440))
//	})
func (s *Store) Batch(fn func()) {
	dc := s.dispatcher()
	if dc.depth == 0 {
		s.dispatchMu.Lock()
		defer s.dispatchMu.Unlock()
	}
	dc.depth++

	defer func() {
		dc.depth--
		if dc.depth > 0 {
			return
		}
		if len(dc.queue) > 0 {
			s.drain(dc)
			return
		}
		s.forget(dc)
	}()

	fn()
}
