package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mkerrigan/roomrelay/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case LoginResult:
		o.printLoginResult(v)
	case RoleResult:
		o.printRoleResult(v)
	case []RoomInfo:
		o.printRooms(v)
	case StatsResult:
		o.printStats(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// LoginResult is the outcome of a signup or signin exchange
type LoginResult struct {
	Approved bool   `json:"approved"`
	Text     string `json:"text"`
}

// RoleResult is the room role granted by a join
type RoleResult struct {
	Role   string `json:"role"`
	Marker string `json:"marker"`
}

// RoomInfo mirrors one entry of the admin rooms snapshot
type RoomInfo struct {
	GameID    string `json:"game_id"`
	Seat0     string `json:"seat0,omitempty"`
	Seat1     string `json:"seat1,omitempty"`
	Observers int    `json:"observers"`
	Moves     int    `json:"moves"`
}

// StatsResult mirrors the admin stats payload
type StatsResult struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
	Accounts    int `json:"accounts"`
}

// HealthResult mirrors the admin health payload
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printLoginResult(r LoginResult) {
	verdict := "refused"
	if r.Approved {
		verdict = "approved"
	}
	fmt.Printf("%s: %s\n", verdict, r.Text)
}

func (o *Output) printRoleResult(r RoleResult) {
	fmt.Printf("Role: %s\n", r.Role)
	fmt.Printf("Marker: %q\n", r.Marker)
}

func (o *Output) printRooms(rooms []RoomInfo) {
	if len(rooms) == 0 {
		fmt.Println("No rooms")
		return
	}
	for _, r := range rooms {
		fmt.Printf("Room: %s\n", r.GameID)
		if r.Seat0 != "" {
			fmt.Printf("  Seat 0: %s\n", r.Seat0)
		}
		if r.Seat1 != "" {
			fmt.Printf("  Seat 1: %s\n", r.Seat1)
		}
		fmt.Printf("  Observers: %d\n", r.Observers)
		fmt.Printf("  Moves: %d\n", r.Moves)
	}
}

func (o *Output) printStats(s StatsResult) {
	fmt.Printf("Connections: %d\n", s.Connections)
	fmt.Printf("Rooms: %d\n", s.Rooms)
	fmt.Printf("Accounts: %d\n", s.Accounts)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

// roleName maps a role state to a readable label
func roleName(role int32) string {
	switch role {
	case protocol.RoleLookingForPlayer:
		return "looking-for-player"
	case protocol.RolePlayerMove:
		return "your-move"
	case protocol.RoleOpponentMove:
		return "opponent-move"
	case protocol.RoleObserver:
		return "observer"
	default:
		return fmt.Sprintf("unknown(%d)", role)
	}
}
