// Package store is the reactive variable store: the current value of every
// lesson variable plus the subscription fan-out that keeps widgets in sync.
//
// Lifecycle:
//
//	st := store.New()                    // create
//	st.Initialize(reg.AllDefaults())     // seed, merge-don't-overwrite
//	sub := st.Subscribe("sineAngle", func(v value.Value) { ... })
//	st.Set("sineAngle", value.Number(90)) // notifies sub before returning
//	sub.Release()
//	st.Dispose()                          // releases every subscription
//
// # Guarantees
//
//   - Initialize only seeds names with no recorded value, so a second call
//     (for example after a hot reload) never discards a user edit.
//   - Set stores the value before notifying, so Get inside a callback, or
//     right after Set, sees the new value.
//   - k live subscribers of a name receive exactly k notifications per Set.
//     Order between them is unspecified.
//   - Writes issued from inside a callback are queued and delivered by the
//     outermost dispatch on that goroutine. They never deadlock and are never
//     skipped, unless a write loop exhausts the storm budget (see
//     WithStormBudget), in which case the rest of the queue is dropped and
//     logged as E201.
//   - A panicking callback is recovered and logged as E202. The remaining
//     subscribers are still notified.
//   - Identical writes notify by default. WithSkipUnchanged opts into
//     skipping them.
//
// The store does not know about declared kinds or ranges. It is a plain map
// that is always available. Constraint checks live in the binding layer and
// the input widgets.
package store
