package binding

import (
	"sync"
	"sync/atomic"

	"github.com/vango-dev/lessonvars/pkg/store"
)

// bindingKey identifies one (listener, variable) subscription in a scope.
type bindingKey struct {
	listener uint64
	name     string
}

// Scope owns the subscriptions made while a widget is mounted.
// When a Scope is disposed, every subscription, child scope and cleanup it
// holds is released, so an unmounted widget is never notified again.
//
// Scopes form a hierarchy mirroring the widget tree: the page owns a root
// scope and every mounted widget gets a child of it.
type Scope struct {
	id     uint64
	parent *Scope

	children   []*Scope
	childrenMu sync.Mutex

	cleanups   []func()
	cleanupsMu sync.Mutex

	// bindings dedupes subscriptions made through UseVariable.
	bindings   map[bindingKey]*store.Subscription
	bindingsMu sync.Mutex

	disposed atomic.Bool
}

// NewScope creates a scope. If parent is non-nil the new scope is disposed
// together with it.
func NewScope(parent *Scope) *Scope {
	s := &Scope{
		id:     nextID(),
		parent: parent,
	}
	if parent != nil {
		parent.addChild(s)
	}
	return s
}

// ID returns the unique identifier for this scope.
func (s *Scope) ID() uint64 {
	return s.id
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// IsDisposed returns true if Dispose has been called.
func (s *Scope) IsDisposed() bool {
	return s.disposed.Load()
}

func (s *Scope) addChild(child *Scope) {
	s.childrenMu.Lock()
	if s.disposed.Load() {
		s.childrenMu.Unlock()
		// Parent already gone; the child dies with it.
		child.Dispose()
		return
	}
	s.children = append(s.children, child)
	s.childrenMu.Unlock()
}

func (s *Scope) removeChild(child *Scope) {
	s.childrenMu.Lock()
	defer s.childrenMu.Unlock()

	for i, c := range s.children {
		if c == child {
			s.children = append(s.children[:i], s.children[i+1:]...)
			return
		}
	}
}

// OnCleanup registers fn to run when the scope is disposed.
// On an already disposed scope fn runs immediately.
func (s *Scope) OnCleanup(fn func()) {
	s.cleanupsMu.Lock()
	if s.disposed.Load() {
		s.cleanupsMu.Unlock()
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.cleanupsMu.Unlock()
}

// Track ties sub to the scope: it is released when the scope is disposed.
func (s *Scope) Track(sub *store.Subscription) {
	s.OnCleanup(sub.Release)
}

// bind returns true if it created the subscription for key, false if the
// scope already had one or is disposed.
func (s *Scope) bind(key bindingKey, subscribe func() *store.Subscription) bool {
	s.bindingsMu.Lock()
	defer s.bindingsMu.Unlock()

	if s.disposed.Load() {
		return false
	}
	if _, ok := s.bindings[key]; ok {
		return false
	}
	if s.bindings == nil {
		s.bindings = make(map[bindingKey]*store.Subscription)
	}
	s.bindings[key] = subscribe()
	return true
}

// BindingCount returns the number of live UseVariable subscriptions.
func (s *Scope) BindingCount() int {
	s.bindingsMu.Lock()
	defer s.bindingsMu.Unlock()
	return len(s.bindings)
}

// Dispose disposes the scope and all its children, subscriptions and
// cleanups. Children are disposed in reverse order, then subscriptions are
// released, then cleanups run in reverse order. Dispose is idempotent.
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}

	if s.parent != nil {
		s.parent.removeChild(s)
	}

	s.childrenMu.Lock()
	children := s.children
	s.children = nil
	s.childrenMu.Unlock()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	s.bindingsMu.Lock()
	bindings := s.bindings
	s.bindings = nil
	s.bindingsMu.Unlock()

	for _, sub := range bindings {
		sub.Release()
	}

	s.cleanupsMu.Lock()
	cleanups := s.cleanups
	s.cleanups = nil
	s.cleanupsMu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
