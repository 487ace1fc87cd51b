package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
)

// MaxFrameSize caps one wire frame. Anything larger is a broken or hostile
// peer.
const MaxFrameSize = 64 * 1024

// TCPServer accepts raw TCP connections carrying length-prefixed wire
// frames: a uint32 little-endian byte count followed by the frame itself.
// The prefix is transport framing only; the frame bytes are exactly what
// the protocol codec consumes.
type TCPServer struct {
	addr     string
	registry *Registry
	events   chan<- Event
	logger   *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   bool
}

// NewTCPServer creates a TCP listener bound to addr
func NewTCPServer(addr string, registry *Registry, events chan<- Event, logger *slog.Logger) *TCPServer {
	return &TCPServer{
		addr:     addr,
		registry: registry,
		events:   events,
		logger:   logger.With(slog.String("component", "tcp")),
	}
}

// Start begins accepting connections. It returns once the listener is
// bound; accepting happens on background goroutines.
func (s *TCPServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("tcp listener started", slog.String("addr", ln.Addr().String()))
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound listen address, useful when addr was ":0"
func (s *TCPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting new connections
func (s *TCPServer) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *TCPServer) acceptLoop(ln net.Listener) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", slog.String("error", err.Error()))
			continue
		}
		go s.handle(nc)
	}
}

func (s *TCPServer) handle(nc net.Conn) {
	conn := s.registry.Add(&tcpLink{nc: nc})
	s.events <- Event{Type: EventConnected, Conn: conn.ID()}

	err := s.readLoop(nc, conn)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		s.logger.Debug("read loop ended",
			slog.String("conn", string(conn.ID())),
			slog.String("error", err.Error()))
	}

	s.registry.Remove(conn.ID())
	s.events <- Event{Type: EventDisconnected, Conn: conn.ID()}
}

func (s *TCPServer) readLoop(nc net.Conn, conn *Conn) error {
	var prefix [4]byte
	for {
		if _, err := io.ReadFull(nc, prefix[:]); err != nil {
			return err
		}
		n := binary.LittleEndian.Uint32(prefix[:])
		if n == 0 || n > MaxFrameSize {
			return fmt.Errorf("invalid frame length %d", n)
		}
		frame := make([]byte, n)
		if _, err := io.ReadFull(nc, frame); err != nil {
			return err
		}
		s.events <- Event{Type: EventFrame, Conn: conn.ID(), Frame: frame}
	}
}

// tcpLink adapts a net.Conn to the Link interface. Writes are serialized by
// the connection's writer goroutine, so no extra locking is needed.
type tcpLink struct {
	nc net.Conn
}

func (l *tcpLink) WriteFrame(frame []byte) error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(frame)))
	if _, err := l.nc.Write(prefix[:]); err != nil {
		return err
	}
	_, err := l.nc.Write(frame)
	return err
}

func (l *tcpLink) Close() error {
	return l.nc.Close()
}
