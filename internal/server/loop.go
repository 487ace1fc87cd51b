// Package server contains the event loop that drives the relay: the single
// place where transport events become dispatched handler calls.
package server

import (
	"context"
	"log/slog"

	"github.com/mkerrigan/roomrelay/internal/dispatch"
	"github.com/mkerrigan/roomrelay/internal/protocol"
	"github.com/mkerrigan/roomrelay/internal/services/room"
	"github.com/mkerrigan/roomrelay/internal/transport"
)

// LoopConfig holds event loop settings
type LoopConfig struct {
	// BatchSize bounds how many events one loop iteration drains before
	// checking for cancellation
	BatchSize int
}

// DefaultLoopConfig returns default loop settings
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{BatchSize: 64}
}

// Loop drains transport events and dispatches them strictly one at a time.
// It is the only goroutine that mutates room and account state, which is
// what makes the room manager's transitions atomic without per-room locks.
type Loop struct {
	events     <-chan transport.Event
	registry   *transport.Registry
	dispatcher *dispatch.Dispatcher
	batchSize  int
	logger     *slog.Logger
}

// NewLoop creates the event loop
func NewLoop(
	events <-chan transport.Event,
	registry *transport.Registry,
	dispatcher *dispatch.Dispatcher,
	cfg LoopConfig,
	logger *slog.Logger,
) *Loop {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultLoopConfig().BatchSize
	}
	return &Loop{
		events:     events,
		registry:   registry,
		dispatcher: dispatcher,
		batchSize:  cfg.BatchSize,
		logger:     logger.With(slog.String("component", "loop")),
	}
}

// Run processes events until ctx is cancelled. Each iteration blocks for
// one event, then opportunistically drains up to BatchSize-1 more that are
// already queued.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("event loop stopped")
			return nil
		case ev := <-l.events:
			l.handle(ctx, ev)
			for i := 1; i < l.batchSize; i++ {
				select {
				case ev := <-l.events:
					l.handle(ctx, ev)
				default:
					i = l.batchSize
				}
			}
		}
	}
}

func (l *Loop) handle(ctx context.Context, ev transport.Event) {
	switch ev.Type {
	case transport.EventConnected:
		l.logger.Info("peer connected", slog.String("conn", string(ev.Conn)))

	case transport.EventFrame:
		msg, err := protocol.DecodeClientFrame(ev.Frame)
		if err != nil {
			// Malformed frame: drop it, keep the connection
			l.logger.Warn("dropping malformed frame",
				slog.String("conn", string(ev.Conn)),
				slog.String("error", err.Error()))
			return
		}
		l.deliver(l.dispatcher.Dispatch(ctx, ev.Conn, msg))

	case transport.EventDisconnected:
		l.logger.Info("peer disconnected", slog.String("conn", string(ev.Conn)))
		l.deliver(l.dispatcher.ConnectionLost(ev.Conn))
	}
}

func (l *Loop) deliver(out []room.Outbound) {
	for _, o := range out {
		if err := l.registry.Send(o.To, protocol.Encode(o.Msg)); err != nil {
			// Recipient already gone; room cleanup follows its own
			// Disconnected event
			l.logger.Debug("send skipped", slog.String("conn", string(o.To)))
		}
	}
}
