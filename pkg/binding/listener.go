package binding

// Listener is anything that re-renders when a variable it read changes.
type Listener interface {
	// MarkDirty notifies the listener that a variable it reads has changed.
	// For widgets, this schedules a re-render.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used to deduplicate subscriptions within a scope.
	ID() uint64
}

// listenerFunc adapts a plain function to Listener.
type listenerFunc struct {
	id uint64
	fn func()
}

func (l *listenerFunc) MarkDirty() { l.fn() }
func (l *listenerFunc) ID() uint64 { return l.id }

// ListenerFunc returns a Listener with a fresh ID that calls fn on every
// change.
func ListenerFunc(fn func()) Listener {
	return &listenerFunc{id: nextID(), fn: fn}
}
