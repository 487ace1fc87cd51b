// Package dispatch routes decoded messages to the account directory and the
// room manager. It is the single entry point for all inbound traffic and
// holds no state of its own.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/protocol"
	"github.com/mkerrigan/roomrelay/internal/services/account"
	"github.com/mkerrigan/roomrelay/internal/services/room"
)

// Login response texts. Clients display these verbatim, so the strings are
// protocol contract.
const (
	textSignupOK     = "New Account Created"
	textSignupExists = "Account already exists please proceed to sign in"
	textSigninOK     = "Sign in approved"
	textWrongPass    = "Wrong password for this username"
	textNoSuchUser   = "Username does not exist please proceed to sign up"
	textServerError  = "Server error please try again"
)

// Dispatcher maps messages to handler calls
type Dispatcher struct {
	logger   *slog.Logger
	accounts *account.Service
	rooms    *room.Manager
}

// New creates a dispatcher over the given services
func New(accounts *account.Service, rooms *room.Manager, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With(slog.String("component", "dispatch")),
		accounts: accounts,
		rooms:    rooms,
	}
}

// Dispatch handles one decoded message from conn and returns the outbound
// messages it produced. Errors are recovered here: they become typed
// responses to the offending connection, never a failure of the server.
func (d *Dispatcher) Dispatch(ctx context.Context, conn model.ConnID, msg protocol.Message) []room.Outbound {
	switch m := msg.(type) {
	case protocol.Signup:
		return d.signUp(ctx, conn, m)
	case protocol.Signin:
		return d.signIn(ctx, conn, m)
	case protocol.ClientText:
		d.logger.Info("client message", slog.String("conn", string(conn)), slog.String("text", m.Text))
		return nil
	case protocol.JoinGame:
		return d.rooms.Join(model.GameID(m.GameID), conn)
	case protocol.BackOut:
		out, err := d.rooms.BackOut(model.GameID(m.GameID), conn)
		return d.roomResult(conn, m.GameID, out, err)
	case protocol.MoveToOpponent:
		out, err := d.rooms.RelayMove(model.GameID(m.GameID), conn, m.X, m.Y, m.Outcome)
		return d.roomResult(conn, m.GameID, out, err)
	case protocol.ChatToOpponent:
		out, err := d.rooms.RelayChat(model.GameID(m.GameID), conn, m.Text)
		return d.roomResult(conn, m.GameID, out, err)
	case protocol.ObserverSync:
		out, err := d.rooms.ForwardReplay(model.GameID(m.GameID), m.Moves)
		return d.roomResult(conn, m.GameID, out, err)
	default:
		d.logger.Debug("ignoring message",
			slog.String("conn", string(conn)),
			slog.Int("signifier", int(msg.Signifier())))
		return nil
	}
}

// ConnectionLost routes a transport-level disconnect into room cleanup
func (d *Dispatcher) ConnectionLost(conn model.ConnID) []room.Outbound {
	return d.rooms.ConnectionLost(conn)
}

func (d *Dispatcher) signUp(ctx context.Context, conn model.ConnID, m protocol.Signup) []room.Outbound {
	err := d.accounts.SignUp(ctx, m.Username, m.Password)
	switch {
	case err == nil:
		return respond(conn, true, textSignupOK)
	case errors.Is(err, model.ErrAccountExists):
		return respond(conn, false, textSignupExists)
	default:
		d.logger.Error("signup failed", slog.String("error", err.Error()))
		return respond(conn, false, textServerError)
	}
}

func (d *Dispatcher) signIn(ctx context.Context, conn model.ConnID, m protocol.Signin) []room.Outbound {
	err := d.accounts.SignIn(ctx, m.Username, m.Password)
	switch {
	case err == nil:
		return respond(conn, true, textSigninOK)
	case errors.Is(err, model.ErrWrongPassword):
		return respond(conn, false, textWrongPass)
	case errors.Is(err, model.ErrAccountNotFound):
		return respond(conn, false, textNoSuchUser)
	default:
		d.logger.Error("signin failed", slog.String("error", err.Error()))
		return respond(conn, false, textServerError)
	}
}

// roomResult converts a room-manager error into a response for the sender.
// An unknown gameID earns a kick so the client resets to its room-select
// state instead of waiting on a room that does not exist.
func (d *Dispatcher) roomResult(conn model.ConnID, gameID string, out []room.Outbound, err error) []room.Outbound {
	if err == nil {
		return out
	}
	if errors.Is(err, model.ErrRoomNotFound) {
		d.logger.Warn("operation on unknown room",
			slog.String("conn", string(conn)),
			slog.String("game_id", gameID))
		return []room.Outbound{{To: conn, Msg: protocol.RoomKick{}}}
	}
	d.logger.Error("room operation failed",
		slog.String("conn", string(conn)),
		slog.String("game_id", gameID),
		slog.String("error", err.Error()))
	return nil
}

func respond(conn model.ConnID, approved bool, text string) []room.Outbound {
	return []room.Outbound{{To: conn, Msg: protocol.LoginResponse{Approved: approved, Text: text}}}
}
