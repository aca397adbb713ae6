package store

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/lessonvars/pkg/value"
)

// Store holds the current value of every variable and fans writes out to
// subscribers.
//
// A Store is created empty, seeded with Initialize, written with Set and torn
// down with Dispose. It is safe for concurrent use. Subscriber callbacks run
// on the writing goroutine, outside the store's lock.
type Store struct {
	mu       sync.RWMutex
	values   map[string]value.Value
	subs     map[string][]*Subscription
	disposed bool

	skipUnchanged bool
	budget        int
	logger        *slog.Logger
	observer      Observer

	// dispatchMu is held by the outermost write or Batch of any goroutine
	// until its notifications are delivered.
	dispatchMu sync.Mutex

	// dispatchers maps goroutine ID to *dispatchContext.
	dispatchers sync.Map
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		values:   make(map[string]value.Value),
		subs:     make(map[string][]*Subscription),
		budget:   DefaultStormBudget,
		logger:   slog.Default().With("component", "store"),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize seeds every name in defaults that has no recorded value and
// returns how many names it seeded. Names already present keep their value,
// so calling Initialize again after a reload never discards a live edit.
// Seeding is not a write: no subscriber is notified.
func (s *Store) Initialize(defaults map[string]value.Value) int {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return 0
	}
	seeded := 0
	for name, v := range defaults {
		if _, ok := s.values[name]; ok {
			continue
		}
		s.values[name] = v
		seeded++
	}
	s.mu.Unlock()

	s.observer.Initialized(seeded)
	return seeded
}

// Get returns the current value of name, or false if it was never set.
func (s *Store) Get(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[name]
	return v, ok
}

// Set records v as the value of name and notifies every subscriber that was
// registered for name at the time of the write.
//
// The value is visible to Get before any subscriber runs. When Set is called
// outside any notification, every notification it causes (including writes
// made by subscribers) is delivered before it returns. When called from
// inside a notification or a Batch, delivery is deferred to the outermost
// dispatch on the same goroutine.
//
// Outermost writes from different goroutines are serialized with their
// fan-out, so subscribers see values in the order the store recorded them
// and the last value delivered is the value the store holds. A subscriber
// must therefore not block waiting for a write on another goroutine.
//
// Writing a value equal to the current one still notifies unless the store
// was created WithSkipUnchanged(true).
func (s *Store) Set(name string, v value.Value) {
	s.commit(name, func(value.Value, bool) (value.Value, bool) {
		return v, true
	})
}

// Update atomically replaces the value of name with fn applied to its
// current value (fallback if unset), then notifies like Set. fn runs under
// the store's lock and must not call back into the store.
func (s *Store) Update(name string, fallback value.Value, fn func(value.Value) value.Value) {
	s.UpdateIf(name, fallback, func(cur value.Value) (value.Value, bool) {
		return fn(cur), true
	})
}

// UpdateIf is Update with a veto: when fn returns false nothing is written
// and nobody is notified. It reports whether the write happened.
func (s *Store) UpdateIf(name string, fallback value.Value, fn func(value.Value) (value.Value, bool)) bool {
	return s.commit(name, func(cur value.Value, had bool) (value.Value, bool) {
		if !had {
			cur = fallback
		}
		return fn(cur)
	})
}

// commit runs one write. The outermost write on a goroutine holds the
// dispatch lock from the moment the value is recorded until its fan-out
// is drained.
func (s *Store) commit(name string, compute func(cur value.Value, had bool) (value.Value, bool)) bool {
	dc := s.dispatcher()
	if dc.depth == 0 {
		s.dispatchMu.Lock()
		defer s.dispatchMu.Unlock()
		defer s.forget(dc)
	}

	n, written, notify := s.write(name, compute)
	if notify {
		s.enqueue(dc, n)
	}
	return written
}

// write records the computed value and returns the notification to deliver.
func (s *Store) write(name string, compute func(value.Value, bool) (value.Value, bool)) (n notification, written, notify bool) {
	var (
		old value.Value
		had bool
	)
	written = func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.disposed {
			return false
		}
		old, had = s.values[name]
		next, ok := compute(old, had)
		if !ok {
			return false
		}
		s.values[name] = next
		n = notification{name: name, value: next}

		// Copy before notify so callbacks never run under the lock and may
		// subscribe or release freely.
		if list := s.subs[name]; len(list) > 0 {
			n.subs = make([]*Subscription, len(list))
			copy(n.subs, list)
		}
		return true
	}()
	if !written {
		return notification{}, false, false
	}

	s.observer.Set(name)

	if s.skipUnchanged && had && old.Equal(n.value) {
		return notification{}, true, false
	}
	if len(n.subs) == 0 {
		s.observer.Notified(name, 0)
		return notification{}, true, false
	}
	return n, true, true
}

// Subscribe registers fn to be called with the new value after every
// accepted Set of name. Subscribing does not call fn with the current value.
// Release the returned handle to stop notifications.
//
// Subscribing on a disposed store returns an already-released handle.
func (s *Store) Subscribe(name string, fn func(value.Value)) *Subscription {
	if fn == nil {
		panic("store: Subscribe called with nil callback")
	}

	sub := &Subscription{
		id:    nextID(),
		name:  name,
		fn:    fn,
		store: s,
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		sub.released.Store(true)
		return sub
	}
	s.subs[name] = append(s.subs[name], sub)
	s.mu.Unlock()

	s.observer.Subscribed(name)
	return sub
}

// remove detaches sub from its name's subscriber list.
func (s *Store) remove(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.subs[sub.name]
	for i, existing := range list {
		if existing == sub {
			// Order doesn't matter, swap with last.
			list[i] = list[len(list)-1]
			list[len(list)-1] = nil
			list = list[:len(list)-1]
			break
		}
	}
	if len(list) == 0 {
		delete(s.subs, sub.name)
	} else {
		s.subs[sub.name] = list
	}
}

// Snapshot returns a copy of every recorded value.
func (s *Store) Snapshot() map[string]value.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]value.Value, len(s.values))
	for name, v := range s.values {
		out[name] = v
	}
	return out
}

// Names returns every recorded name in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of recorded names.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// SubscriberCount returns the number of live subscriptions for name.
func (s *Store) SubscriberCount(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs[name])
}

// IsDisposed reports whether Dispose has been called.
func (s *Store) IsDisposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

// Dispose releases every subscription. After Dispose, Initialize, Set and
// Subscribe are no-ops; Get keeps returning the last values.
func (s *Store) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	subs := s.subs
	s.subs = make(map[string][]*Subscription)
	s.mu.Unlock()

	for name, list := range subs {
		for _, sub := range list {
			if !sub.released.Swap(true) {
				s.observer.Released(name)
			}
		}
	}
}

// Subscription is an owned handle for one callback registered on one name.
type Subscription struct {
	id       uint64
	name     string
	fn       func(value.Value)
	store    *Store
	released atomic.Bool
}

// ID returns the unique identifier of the subscription.
func (sub *Subscription) ID() uint64 {
	return sub.id
}

// Name returns the variable the subscription observes.
func (sub *Subscription) Name() string {
	return sub.name
}

// Released reports whether Release has been called.
func (sub *Subscription) Released() bool {
	return sub.released.Load()
}

// Release stops further notifications. It is idempotent and may be called
// from any goroutine, including from inside the subscription's own callback;
// a notification already queued for a released subscription is skipped.
func (sub *Subscription) Release() {
	if sub == nil || sub.released.Swap(true) {
		return
	}
	sub.store.remove(sub)
	sub.store.observer.Released(sub.name)
}
