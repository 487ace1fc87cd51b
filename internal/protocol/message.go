package protocol

// Message is the typed form of one wire frame. The concrete type identifies
// the signifier; fields carry the decoded payload.
type Message interface {
	Signifier() Signifier
}

// MoveEntry is one (x, y, outcome) triple in a replay list
type MoveEntry struct {
	X       int32
	Y       int32
	Outcome int32
}

// Client-origin messages

// Signup requests creation of a new account (signifier 1)
type Signup struct {
	Username string
	Password string
}

// Signin requests authentication of an existing account (signifier 2)
type Signin struct {
	Username string
	Password string
}

// ClientText is a free-text debug message from a client (signifier 3)
type ClientText struct {
	Text string
}

// JoinGame asks to find or create the room for a game ID (signifier 5)
type JoinGame struct {
	GameID string
}

// BackOut announces a voluntary departure from a room (signifier 7)
type BackOut struct {
	GameID string
}

// ChatToOpponent carries chat from one seated player to the other
// (signifier 9, client to server)
type ChatToOpponent struct {
	GameID string
	Text   string
}

// MoveToOpponent carries one turn from a seated player (signifier 10)
type MoveToOpponent struct {
	GameID  string
	X       int32
	Y       int32
	Outcome int32
}

// ObserverSync is seat0's answer to a replay request: the full move history
// of its game (signifier 12, client to server)
type ObserverSync struct {
	GameID string
	Moves  []MoveEntry
}

// Server-origin messages

// LoginResponse reports the outcome of a signup or signin (signifier 4).
// On the wire the text is prefixed "YES," when approved, "NO," otherwise.
type LoginResponse struct {
	Approved bool
	Text     string
}

// GameIDResponse tells a connection its role in a room (signifier 6)
type GameIDResponse struct {
	Role   int32
	Marker string
}

// RoomKick tells a connection its room is gone (signifier 8)
type RoomKick struct{}

// ChatRelay delivers opponent chat to the other seated player
// (signifier 9, server to client)
type ChatRelay struct {
	Text string
}

// MoveRelay delivers a move to every other participant of a room
// (signifier 11)
type MoveRelay struct {
	X       int32
	Y       int32
	Outcome int32
	Marker  string
}

// ObserverSyncRequest asks seat0 to send back its move history
// (signifier 12, server to client, no payload)
type ObserverSyncRequest struct{}

// ObserverSyncFinal delivers a full move history to an observer
// (signifier 13)
type ObserverSyncFinal struct {
	Moves []MoveEntry
}

// LookingForPlayer tells a seated player it is alone in its room again
// (signifier 14, no payload)
type LookingForPlayer struct{}

// Unknown preserves the signifier of a frame the codec has no layout for.
// The dispatcher drops it without error.
type Unknown struct {
	Sig Signifier
}

func (Signup) Signifier() Signifier              { return SigAccountSignup }
func (Signin) Signifier() Signifier              { return SigAccountSignin }
func (ClientText) Signifier() Signifier          { return SigMessage }
func (JoinGame) Signifier() Signifier            { return SigGameID }
func (BackOut) Signifier() Signifier             { return SigBackOut }
func (ChatToOpponent) Signifier() Signifier      { return SigMessageToOpponent }
func (MoveToOpponent) Signifier() Signifier      { return SigSelectionToOpponent }
func (ObserverSync) Signifier() Signifier        { return SigAllSelectionsToObserver }
func (LoginResponse) Signifier() Signifier       { return SigServerLoginResponse }
func (GameIDResponse) Signifier() Signifier      { return SigServerGameIDResponse }
func (RoomKick) Signifier() Signifier            { return SigServerGameRoomKick }
func (ChatRelay) Signifier() Signifier           { return SigMessageToOpponent }
func (MoveRelay) Signifier() Signifier           { return SigSelectionRelay }
func (ObserverSyncRequest) Signifier() Signifier { return SigAllSelectionsToObserver }
func (ObserverSyncFinal) Signifier() Signifier   { return SigAllSelectionsFinal }
func (LookingForPlayer) Signifier() Signifier    { return SigSendToLookingForPlayer }
func (u Unknown) Signifier() Signifier           { return u.Sig }
