package model

import "time"

// GameID is the client-supplied identifier used to find or create a room
type GameID string

// Seat identifies one of the two player slots in a room
type Seat int

const (
	// Seat0 is the first-seated player; seat0 always moves first
	Seat0 Seat = 0
	// Seat1 is the second-seated player
	Seat1 Seat = 1
)

// Move is a single relayed turn: a grid position and the client-reported
// outcome code for the game after that move
type Move struct {
	X       int
	Y       int
	Outcome int
}

// Room is the matchmaking/game unit keyed by GameID.
//
// Seats holds the two player slots; NoConn marks a vacant seat. Observers is
// the ordered list of spectator connections beyond the two seats. MoveLog is
// append-only for the lifetime of the room.
type Room struct {
	GameID    GameID
	Seats     [2]ConnID
	Observers []ConnID
	MoveLog   []Move
	CreatedAt time.Time
}

// SeatOf returns the seat held by the given connection, or false if it does
// not hold one
func (r *Room) SeatOf(conn ConnID) (Seat, bool) {
	if conn == NoConn {
		return 0, false
	}
	if r.Seats[Seat0] == conn {
		return Seat0, true
	}
	if r.Seats[Seat1] == conn {
		return Seat1, true
	}
	return 0, false
}

// IsObserver reports whether the given connection is in the observer list
func (r *Room) IsObserver(conn ConnID) bool {
	for _, o := range r.Observers {
		if o == conn {
			return true
		}
	}
	return false
}

// HasParticipant reports whether the connection holds a seat or observes
func (r *Room) HasParticipant(conn ConnID) bool {
	if _, ok := r.SeatOf(conn); ok {
		return true
	}
	return r.IsObserver(conn)
}

// Participants returns every live connection in the room, seats first then
// observers in join order
func (r *Room) Participants() []ConnID {
	var out []ConnID
	for _, s := range r.Seats {
		if s != NoConn {
			out = append(out, s)
		}
	}
	out = append(out, r.Observers...)
	return out
}

// RemoveObserver removes the connection from the observer list if present
func (r *Room) RemoveObserver(conn ConnID) {
	for i, o := range r.Observers {
		if o == conn {
			r.Observers = append(r.Observers[:i], r.Observers[i+1:]...)
			return
		}
	}
}
