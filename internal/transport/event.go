package transport

import "github.com/mkerrigan/roomrelay/internal/model"

// EventType discriminates transport events
type EventType int

const (
	// EventConnected fires once when a peer connects
	EventConnected EventType = iota
	// EventFrame carries one complete inbound wire frame
	EventFrame
	// EventDisconnected fires once when a peer is gone, whatever the cause
	EventDisconnected
)

// Event is one transport occurrence, delivered to the server loop in
// arrival order
type Event struct {
	Type  EventType
	Conn  model.ConnID
	Frame []byte
}
