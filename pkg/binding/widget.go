package binding

import (
	"sync"
	"sync/atomic"
)

// Widget is a mounted piece of lesson UI driven by a render function.
// The render function reads variables through UseVariable with the widget
// as listener; any later write to one of them marks the widget dirty and the
// next Flush of its queue renders it again.
type Widget struct {
	id     uint64
	scope  *Scope
	queue  *RenderQueue
	render func(w *Widget)

	dirty   atomic.Bool
	renders atomic.Int64
}

// NewWidget creates a widget in a child scope of parent. The widget is not
// rendered until Render or a Flush after MarkDirty.
func NewWidget(parent *Scope, queue *RenderQueue, render func(w *Widget)) *Widget {
	w := &Widget{
		id:     nextID(),
		scope:  NewScope(parent),
		queue:  queue,
		render: render,
	}
	return w
}

// ID implements Listener.
func (w *Widget) ID() uint64 {
	return w.id
}

// Scope returns the scope owning the widget's subscriptions.
func (w *Widget) Scope() *Scope {
	return w.scope
}

// Renders returns how many times the widget has rendered.
func (w *Widget) Renders() int {
	return int(w.renders.Load())
}

// IsDirty reports whether the widget is waiting for a re-render.
func (w *Widget) IsDirty() bool {
	return w.dirty.Load()
}

// Render runs the render function now, unless the widget is disposed.
func (w *Widget) Render() {
	if w.scope.IsDisposed() {
		return
	}
	w.dirty.Store(false)
	w.renders.Add(1)
	w.render(w)
}

// MarkDirty implements Listener. The widget is queued once; further marks
// before the next Flush are coalesced.
func (w *Widget) MarkDirty() {
	if w.scope.IsDisposed() {
		return
	}
	if !w.dirty.CompareAndSwap(false, true) {
		return
	}
	if w.queue == nil {
		w.Render()
		return
	}
	w.queue.add(w)
}

// Dispose unmounts the widget and releases its subscriptions.
func (w *Widget) Dispose() {
	w.scope.Dispose()
}

// RenderQueue collects dirty widgets between render passes.
type RenderQueue struct {
	mu    sync.Mutex
	dirty []*Widget
}

// NewRenderQueue creates an empty render queue.
func NewRenderQueue() *RenderQueue {
	return &RenderQueue{}
}

func (q *RenderQueue) add(w *Widget) {
	q.mu.Lock()
	q.dirty = append(q.dirty, w)
	q.mu.Unlock()
}

// Pending returns the number of widgets waiting to render.
func (q *RenderQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dirty)
}

// Flush renders every dirty widget once, in the order they were marked, and
// returns how many rendered. Widgets disposed while dirty are skipped.
// Widgets marked dirty during the flush wait for the next one.
func (q *RenderQueue) Flush() int {
	q.mu.Lock()
	dirty := q.dirty
	q.dirty = nil
	q.mu.Unlock()

	rendered := 0
	for _, w := range dirty {
		if w.scope.IsDisposed() {
			w.dirty.Store(false)
			continue
		}
		w.Render()
		rendered++
	}
	return rendered
}
