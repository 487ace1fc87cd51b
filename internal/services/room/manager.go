// Package room implements the room state machine: seat assignment, backout
// and promotion, move/chat relay, and observer sync.
//
// The manager computes state transitions and the outbound messages they
// produce; it never touches the network. The server loop is the only writer,
// so operations are serialized; the internal lock exists to let the admin
// endpoints take read-only snapshots from their own goroutines.
package room

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/mkerrigan/roomrelay/internal/dependencies/clock"
	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/protocol"
)

// Outbound is one message for the transport to deliver
type Outbound struct {
	To  model.ConnID
	Msg protocol.Message
}

// Manager owns all room state. It is the only component that mutates rooms.
type Manager struct {
	logger *slog.Logger
	clock  clock.Clock

	mu    sync.RWMutex
	rooms map[model.GameID]*model.Room
}

// NewManager creates a room manager
func NewManager(clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger.With(slog.String("component", "room")),
		clock:  clk,
		rooms:  make(map[model.GameID]*model.Room),
	}
}

// Join finds or creates the room for gameID and places conn in it: first
// caller takes seat0, second takes seat1, everyone after observes.
func (m *Manager) Join(gameID model.GameID, conn model.ConnID) []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[gameID]
	if !ok {
		r = &model.Room{
			GameID:    gameID,
			Seats:     [2]model.ConnID{conn, model.NoConn},
			CreatedAt: m.clock.Now(),
		}
		m.rooms[gameID] = r
		m.logger.Info("room created",
			slog.String("game_id", string(gameID)),
			slog.String("conn", string(conn)))
		return []Outbound{{To: conn, Msg: protocol.GameIDResponse{
			Role:   protocol.RoleLookingForPlayer,
			Marker: protocol.MarkerNone,
		}}}
	}

	// Rejoining a room you are already in resends your current role rather
	// than double-seating you
	if r.Seats[model.Seat0] == conn {
		role, marker := protocol.RoleLookingForPlayer, protocol.MarkerNone
		if r.Seats[model.Seat1] != model.NoConn {
			role, marker = protocol.RolePlayerMove, protocol.MarkerSeat0
		}
		return []Outbound{{To: conn, Msg: protocol.GameIDResponse{Role: role, Marker: marker}}}
	}
	if r.Seats[model.Seat1] == conn {
		return []Outbound{{To: conn, Msg: protocol.GameIDResponse{
			Role:   protocol.RoleOpponentMove,
			Marker: protocol.MarkerSeat1,
		}}}
	}

	if r.Seats[model.Seat1] == model.NoConn {
		r.Seats[model.Seat1] = conn
		m.logger.Info("room filled",
			slog.String("game_id", string(gameID)),
			slog.String("conn", string(conn)))
		return []Outbound{
			{To: r.Seats[model.Seat0], Msg: protocol.GameIDResponse{
				Role:   protocol.RolePlayerMove,
				Marker: protocol.MarkerSeat0,
			}},
			{To: conn, Msg: protocol.GameIDResponse{
				Role:   protocol.RoleOpponentMove,
				Marker: protocol.MarkerSeat1,
			}},
		}
	}

	// Both seats taken: attach as observer. The move log is authoritative at
	// seat0's client, so ask it for a replay to forward once it answers.
	if !r.HasParticipant(conn) {
		r.Observers = append(r.Observers, conn)
	}
	m.logger.Info("observer joined",
		slog.String("game_id", string(gameID)),
		slog.String("conn", string(conn)),
		slog.Int("observers", len(r.Observers)))
	return []Outbound{
		{To: conn, Msg: protocol.GameIDResponse{
			Role:   protocol.RoleObserver,
			Marker: protocol.MarkerObserver,
		}},
		{To: r.Seats[model.Seat0], Msg: protocol.ObserverSyncRequest{}},
	}
}

// BackOut handles a voluntary departure from a room.
// Returns model.ErrRoomNotFound for an unknown gameID.
func (m *Manager) BackOut(gameID model.GameID, conn model.ConnID) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[gameID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return m.leaveLocked(r, conn), nil
}

// ConnectionLost performs the same cleanup as BackOut for every room the
// connection participates in. Transport-level disconnects and voluntary
// backouts converge here so dead handles never linger in seats.
func (m *Manager) ConnectionLost(conn model.ConnID) []Outbound {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected []*model.Room
	for _, r := range m.rooms {
		if r.HasParticipant(conn) {
			affected = append(affected, r)
		}
	}

	var out []Outbound
	for _, r := range affected {
		out = append(out, m.leaveLocked(r, conn)...)
	}
	return out
}

// leaveLocked applies the departure transitions. Callers hold m.mu.
func (m *Manager) leaveLocked(r *model.Room, conn model.ConnID) []Outbound {
	switch {
	case r.Seats[model.Seat0] == conn:
		if r.Seats[model.Seat1] == model.NoConn {
			// Last seated player gone: the room dies and observers are told
			var out []Outbound
			for _, o := range r.Observers {
				out = append(out, Outbound{To: o, Msg: protocol.RoomKick{}})
			}
			delete(m.rooms, r.GameID)
			m.logger.Info("room destroyed",
				slog.String("game_id", string(r.GameID)),
				slog.Int("kicked_observers", len(r.Observers)))
			return out
		}
		// Promote seat1. The room identity effectively resets, and current
		// behavior discards its observers along with it.
		r.Seats[model.Seat0] = r.Seats[model.Seat1]
		r.Seats[model.Seat1] = model.NoConn
		out := []Outbound{{To: r.Seats[model.Seat0], Msg: protocol.LookingForPlayer{}}}
		for _, o := range r.Observers {
			out = append(out, Outbound{To: o, Msg: protocol.RoomKick{}})
		}
		r.Observers = nil
		m.logger.Info("seat promoted",
			slog.String("game_id", string(r.GameID)),
			slog.String("conn", string(r.Seats[model.Seat0])))
		return out

	case r.Seats[model.Seat1] == conn:
		r.Seats[model.Seat1] = model.NoConn
		return []Outbound{{To: r.Seats[model.Seat0], Msg: protocol.LookingForPlayer{}}}

	default:
		r.RemoveObserver(conn)
		return nil
	}
}

// RelayMove appends the move to the room's log and broadcasts it to every
// other participant, tagged with the sender's marker. Moves from observers
// are dropped. Returns model.ErrRoomNotFound for an unknown gameID.
func (m *Manager) RelayMove(gameID model.GameID, conn model.ConnID, x, y, outcome int32) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[gameID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	seat, seated := r.SeatOf(conn)
	if !seated {
		return nil, nil
	}

	marker := protocol.MarkerSeat0
	if seat == model.Seat1 {
		marker = protocol.MarkerSeat1
	}

	r.MoveLog = append(r.MoveLog, model.Move{X: int(x), Y: int(y), Outcome: int(outcome)})

	var out []Outbound
	for _, p := range r.Participants() {
		if p == conn {
			continue
		}
		out = append(out, Outbound{To: p, Msg: protocol.MoveRelay{
			X: x, Y: y, Outcome: outcome, Marker: marker,
		}})
	}
	return out, nil
}

// RelayChat delivers chat to the other seated player only; observers never
// receive chat. Returns model.ErrRoomNotFound for an unknown gameID.
func (m *Manager) RelayChat(gameID model.GameID, conn model.ConnID, text string) ([]Outbound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[gameID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	target := r.Seats[model.Seat0]
	if conn == r.Seats[model.Seat0] {
		target = r.Seats[model.Seat1]
	}
	if target == model.NoConn {
		return nil, nil
	}
	return []Outbound{{To: target, Msg: protocol.ChatRelay{Text: text}}}, nil
}

// ForwardReplay fans a replay list from seat0's client out to every observer
// of the room. Returns model.ErrRoomNotFound for an unknown gameID.
func (m *Manager) ForwardReplay(gameID model.GameID, moves []protocol.MoveEntry) ([]Outbound, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rooms[gameID]
	if !ok {
		return nil, model.ErrRoomNotFound
	}

	var out []Outbound
	for _, o := range r.Observers {
		out = append(out, Outbound{To: o, Msg: protocol.ObserverSyncFinal{Moves: moves}})
	}
	return out, nil
}

// RoomSnapshot is a read-only view of one room for operations tooling
type RoomSnapshot struct {
	GameID    string `json:"game_id"`
	Seat0     string `json:"seat0,omitempty"`
	Seat1     string `json:"seat1,omitempty"`
	Observers int    `json:"observers"`
	Moves     int    `json:"moves"`
}

// Snapshot returns a view of every room, sorted by game ID
func (m *Manager) Snapshot() []RoomSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]RoomSnapshot, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, RoomSnapshot{
			GameID:    string(r.GameID),
			Seat0:     string(r.Seats[model.Seat0]),
			Seat1:     string(r.Seats[model.Seat1]),
			Observers: len(r.Observers),
			Moves:     len(r.MoveLog),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameID < out[j].GameID })
	return out
}

// RoomCount returns the number of live rooms
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
