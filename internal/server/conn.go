package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/binding"
	"github.com/vango-dev/lessonvars/pkg/store"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// conn is one widget client. Its subscriptions live in its own scope and
// are released when the connection closes, however it closes.
type conn struct {
	id     string
	ws     *websocket.Conn
	srv    *Server
	scope  *binding.Scope
	logger *slog.Logger

	send chan Frame
	done chan struct{}

	// mu orders "current value" frames against notification frames.
	mu   sync.Mutex
	subs map[string]*store.Subscription

	closeOnce sync.Once
}

func newConn(srv *Server, ws *websocket.Conn) *conn {
	id := uuid.NewString()
	return &conn{
		id:     id,
		ws:     ws,
		srv:    srv,
		scope:  binding.NewScope(srv.page.Scope()),
		logger: srv.logger.With("conn_id", id),
		send:   make(chan Frame, srv.opts.SendBuffer),
		done:   make(chan struct{}),
		subs:   make(map[string]*store.Subscription),
	}
}

// enqueue queues f without blocking. A client that cannot keep up is
// dropped rather than stalling the writer that notified it.
func (c *conn) enqueue(f Frame) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- f:
	default:
		c.logger.Warn("send buffer full, dropping connection", "buffer", cap(c.send))
		c.close("send buffer full")
	}
}

// close tears the connection down. Safe to call from any goroutine, more
// than once.
func (c *conn) close(reason string) {
	c.closeOnce.Do(func() {
		close(c.done)
		c.scope.Dispose()
		if c.ws != nil {
			c.ws.Close()
		}
		c.logger.Debug("connection closed", "reason", reason)
	})
}

// readPump handles client frames until the connection fails.
func (c *conn) readPump(ctx context.Context) {
	c.ws.SetReadLimit(c.srv.opts.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.srv.opts.pongWait()))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.srv.opts.pongWait()))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("read failed", "error", err)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.reject("", errors.New("E402").Wrap(err))
			continue
		}
		c.handle(ctx, f)
	}
}

// writePump sends queued frames and heartbeats until the connection closes.
func (c *conn) writePump() {
	ticker := time.NewTicker(c.srv.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case f := <-c.send:
			data, err := json.Marshal(f)
			if err != nil {
				c.logger.Error("encode frame", "error", err)
				continue
			}
			c.ws.SetWriteDeadline(time.Now().Add(c.srv.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close("write failed")
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.srv.opts.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close("ping failed")
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *conn) handle(ctx context.Context, f Frame) {
	if f.Name == "" {
		c.reject("", errors.New("E402").WithDetail("frame has no name"))
		return
	}
	switch f.Op {
	case OpSubscribe:
		c.subscribe(f.Name, f.Fallback)
	case OpUnsubscribe:
		c.unsubscribe(f.Name)
	case OpSet:
		if f.Value == nil {
			c.reject(f.Name, errors.New("E402").WithDetail("set frame has no value"))
			return
		}
		if err := c.srv.page.Binder().SetVariable(ctx, f.Name, *f.Value); err != nil {
			c.reject(f.Name, err)
		}
	default:
		c.reject(f.Name, errors.New("E402").WithDetail("unknown op "+f.Op))
	}
}

// subscribe starts notifications for name and sends its current value.
// Subscribing twice to the same name only resends the current value.
func (c *conn) subscribe(name string, fallback *value.Value) {
	b := c.srv.page.Binder()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.subs[name]; !ok {
		c.subs[name] = b.Watch(c.scope, name, func(v value.Value) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.enqueue(valueFrame(name, v))
		})
	}

	fb := b.Registry().DefaultValueOf(name)
	if fallback != nil {
		fb = *fallback
	}
	c.enqueue(valueFrame(name, b.Read(name, fb)))
}

func (c *conn) unsubscribe(name string) {
	c.mu.Lock()
	sub := c.subs[name]
	delete(c.subs, name)
	c.mu.Unlock()

	sub.Release()
}

// reject sends an error frame for a frame that could not be applied.
func (c *conn) reject(name string, err error) {
	code := errors.Code(err)
	var e *errors.Error
	message := err.Error()
	if stderrors.As(err, &e) {
		message = e.Message
		if e.Detail != "" {
			message += ": " + e.Detail
		} else if e.Wrapped != nil {
			message += ": " + e.Wrapped.Error()
		}
	}
	c.logger.Debug("frame rejected", "code", code, "variable", name, "error", err)
	c.enqueue(errorFrame(name, code, message))
}
