package protocol

// Signifier is the integer discriminator at the head of every wire message
type Signifier int32

// Wire signifier values. These are protocol contract and must not change.
const (
	SigAccountSignup            Signifier = 1
	SigAccountSignin            Signifier = 2
	SigMessage                  Signifier = 3
	SigServerLoginResponse      Signifier = 4
	SigGameID                   Signifier = 5
	SigServerGameIDResponse     Signifier = 6
	SigBackOut                  Signifier = 7
	SigServerGameRoomKick       Signifier = 8
	SigMessageToOpponent        Signifier = 9
	SigSelectionToOpponent      Signifier = 10
	SigSelectionRelay           Signifier = 11
	SigAllSelectionsToObserver  Signifier = 12
	SigAllSelectionsFinal       Signifier = 13
	SigSendToLookingForPlayer   Signifier = 14
)

// Role states carried in a ServerGameIDResponse. The values are shared with
// clients, which use them to drive their own state machine.
const (
	RoleLookingForPlayer int32 = 2
	RolePlayerMove       int32 = 3
	RoleOpponentMove     int32 = 4
	RoleObserver         int32 = 5
)

// Markers identify which participant a response or relayed move refers to.
// Seat0 plays "X" and always moves first.
const (
	MarkerSeat0    = "X"
	MarkerSeat1    = "O"
	MarkerObserver = "T"
	MarkerNone     = " "
)
