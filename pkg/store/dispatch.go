package store

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// notification is one accepted write waiting to be delivered to the
// subscribers that were registered when the write happened.
type notification struct {
	name  string
	value value.Value
	subs  []*Subscription
}

// dispatchContext holds the notification state of one goroutine for one
// store. Only the owning goroutine touches it.
type dispatchContext struct {
	gid uint64

	// depth counts active dispatch loops and Batch calls. When > 0, new
	// writes queue their notifications instead of delivering them.
	depth int

	// queue holds notifications waiting for the outermost dispatch.
	queue []notification

	// delivered counts subscriber callbacks run by the current outermost
	// dispatch, for the storm budget.
	delivered int
}

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the "goroutine <id> " header of runtime.Stack.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// dispatcher returns the calling goroutine's dispatch context, creating it
// if needed.
func (s *Store) dispatcher() *dispatchContext {
	gid := getGoroutineID()
	if dc, ok := s.dispatchers.Load(gid); ok {
		return dc.(*dispatchContext)
	}
	dc := &dispatchContext{gid: gid}
	s.dispatchers.Store(gid, dc)
	return dc
}

// forget drops an idle dispatch context so that short-lived goroutines do
// not accumulate entries.
func (s *Store) forget(dc *dispatchContext) {
	if dc.depth == 0 && len(dc.queue) == 0 {
		dc.delivered = 0
		s.dispatchers.Delete(dc.gid)
	}
}

// enqueue schedules n for delivery. Outside any dispatch it is delivered
// before enqueue returns. Inside a notification or a Batch on the same
// goroutine it waits for the outermost dispatch, so a subscriber that writes
// never re-enters the fan-out it is part of.
func (s *Store) enqueue(dc *dispatchContext, n notification) {
	dc.queue = append(dc.queue, n)
	if dc.depth > 0 {
		return
	}
	s.drain(dc)
}

// drain delivers queued notifications in FIFO order until the queue is
// empty or the storm budget is exhausted.
func (s *Store) drain(dc *dispatchContext) {
	dc.depth++
	defer func() {
		dc.depth--
		s.forget(dc)
	}()

	for len(dc.queue) > 0 {
		if s.budget > 0 && dc.delivered >= s.budget {
			s.trip(dc)
			return
		}

		n := dc.queue[0]
		dc.queue[0] = notification{}
		dc.queue = dc.queue[1:]

		s.deliver(dc, n)
	}
}

// deliver runs every live subscriber of n exactly once.
func (s *Store) deliver(dc *dispatchContext, n notification) {
	count := 0
	for _, sub := range n.subs {
		if sub.released.Load() {
			continue
		}
		s.invoke(sub, n.value)
		count++
	}
	dc.delivered += count
	s.observer.Notified(n.name, count)
}

// invoke runs one callback, recovering a panic so that the remaining
// subscribers are still notified.
func (s *Store) invoke(sub *Subscription, v value.Value) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("subscriber panicked",
				"code", "E202",
				"variable", sub.name,
				"subscription", sub.id,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			s.observer.CallbackPanicked(sub.name)
		}
	}()
	sub.fn(v)
}

// trip drops everything still queued after the storm budget ran out.
func (s *Store) trip(dc *dispatchContext) {
	dropped := len(dc.queue)
	names := make([]string, 0, dropped)
	for _, n := range dc.queue {
		names = append(names, n.name)
	}
	dc.queue = nil

	err := errors.New("E201")
	s.logger.Error(err.Message,
		"code", err.Code,
		"budget", s.budget,
		"delivered", dc.delivered,
		"dropped", dropped,
		"variables", names)
	s.observer.StormTripped(dropped)
}
