package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
)

// WSServer accepts WebSocket connections carrying the same wire frames as
// the TCP listener, one binary message per frame. Browsers cannot open raw
// TCP sockets; this is the path web clients use.
type WSServer struct {
	registry *Registry
	events   chan<- Event
	logger   *slog.Logger
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewWSServer creates a WebSocket listener bound to addr, serving the relay
// protocol at /ws
func NewWSServer(addr string, registry *Registry, events chan<- Event, logger *slog.Logger) *WSServer {
	s := &WSServer{
		registry: registry,
		events:   events,
		logger:   logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The relay protocol has its own account auth; origin checking
			// adds nothing for non-browser clients
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 0, // connections are long-lived
	}
	return s
}

// Start begins listening for WebSocket upgrades
func (s *WSServer) Start() error {
	s.logger.Info("websocket listener started", slog.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the listener
func (s *WSServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *WSServer) serveWS(w http.ResponseWriter, r *http.Request) {
	wc, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", slog.String("error", err.Error()))
		return
	}
	wc.SetReadLimit(MaxFrameSize)

	conn := s.registry.Add(&wsLink{wc: wc})
	s.events <- Event{Type: EventConnected, Conn: conn.ID()}

	for {
		msgType, frame, err := wc.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.BinaryMessage {
			s.logger.Debug("ignoring non-binary message",
				slog.String("conn", string(conn.ID())))
			continue
		}
		s.events <- Event{Type: EventFrame, Conn: conn.ID(), Frame: frame}
	}

	s.registry.Remove(conn.ID())
	s.events <- Event{Type: EventDisconnected, Conn: conn.ID()}
}

// wsLink adapts a websocket connection to the Link interface
type wsLink struct {
	wc *websocket.Conn
}

func (l *wsLink) WriteFrame(frame []byte) error {
	_ = l.wc.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return l.wc.WriteMessage(websocket.BinaryMessage, frame)
}

func (l *wsLink) Close() error {
	return l.wc.Close()
}
