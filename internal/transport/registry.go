// Package transport owns the network edge: the connection registry, the
// listeners, and the framing that turns a byte stream into discrete wire
// frames. Everything above it deals only in model.ConnID and decoded
// messages.
package transport

import (
	"log/slog"
	"sync"

	"github.com/mkerrigan/roomrelay/internal/dependencies/random"
	"github.com/mkerrigan/roomrelay/internal/model"
)

const (
	connIDLength   = 12
	connIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// sendQueueSize is the per-connection outbound buffer. A peer that
	// cannot drain this many frames is dropped rather than allowed to stall
	// the server loop.
	sendQueueSize = 64
)

// Link is the writable half of one underlying connection. Implementations
// wrap a TCP stream or a websocket.
type Link interface {
	WriteFrame(frame []byte) error
	Close() error
}

// Conn is one registered peer: an ID, a link, and a buffered outbound queue
// drained by its own writer goroutine
type Conn struct {
	id   model.ConnID
	link Link

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	logger *slog.Logger
}

// ID returns the connection's identifier
func (c *Conn) ID() model.ConnID {
	return c.id
}

// enqueue adds a frame to the outbound queue without blocking.
// Reports false when the queue is full.
func (c *Conn) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Close shuts the connection down. Safe to call more than once; the read
// loop observing the closed link emits the Disconnected event.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.link.Close()
	})
}

// writeLoop drains the outbound queue onto the link
func (c *Conn) writeLoop() {
	for {
		select {
		case frame := <-c.send:
			if err := c.link.WriteFrame(frame); err != nil {
				c.logger.Debug("write failed, closing connection",
					slog.String("conn", string(c.id)),
					slog.String("error", err.Error()))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Registry tracks every live connection across all listeners
type Registry struct {
	logger *slog.Logger
	random random.Random

	mu    sync.RWMutex
	conns map[model.ConnID]*Conn
}

// NewRegistry creates a connection registry
func NewRegistry(rnd random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger.With(slog.String("component", "registry")),
		random: rnd,
		conns:  make(map[model.ConnID]*Conn),
	}
}

// Add registers a new connection over the given link, assigning it a fresh
// ConnID and starting its writer goroutine
func (r *Registry) Add(l Link) *Conn {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id model.ConnID
	for {
		id = model.ConnID("c_" + r.random.String(connIDLength, connIDAlphabet))
		if _, taken := r.conns[id]; !taken {
			break
		}
	}

	c := &Conn{
		id:     id,
		link:   l,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
		logger: r.logger,
	}
	r.conns[id] = c
	go c.writeLoop()

	r.logger.Info("connection registered",
		slog.String("conn", string(id)),
		slog.Int("total", len(r.conns)))
	return c
}

// Remove drops a connection from the registry and closes it
func (r *Registry) Remove(id model.ConnID) {
	r.mu.Lock()
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	total := len(r.conns)
	r.mu.Unlock()

	if ok {
		c.Close()
		r.logger.Info("connection removed",
			slog.String("conn", string(id)),
			slog.Int("total", total))
	}
}

// Send queues one encoded frame for delivery. A full queue drops the
// connection: a stuck peer must not hold up everyone else.
func (r *Registry) Send(id model.ConnID, frame []byte) error {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()

	if !ok {
		return model.ErrConnNotFound
	}
	if !c.enqueue(frame) {
		r.logger.Warn("send queue full, dropping connection",
			slog.String("conn", string(id)))
		c.Close()
	}
	return nil
}

// Count returns the number of live connections
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// CloseAll closes every registered connection, used at shutdown
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[model.ConnID]*Conn)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
