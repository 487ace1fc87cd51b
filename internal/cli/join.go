package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mkerrigan/roomrelay/internal/protocol"
)

func newJoinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join <game-id>",
		Short: "Join a game room as a player",
		Long: `Connect to the relay and take a seat in the named room, creating it
if it does not exist yet. The session then reads commands from stdin:

  move <x> <y> [outcome]   relay one move
  chat <text>              message the other seat
  back                     leave the room
  quit                     close the session

Server traffic is printed as it arrives. Press Ctrl+D or type quit to
disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(args[0], false)
		},
	}
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <game-id>",
		Short: "Observe a game room",
		Long: `Connect to the relay and join the named room. With both seats taken
this yields an observer role and a stream of the room's traffic, starting
with a replay of moves made so far. Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(args[0], true)
		},
	}
}

// session is one live connection to a room. It tracks the move history so
// it can answer a replay request if it holds the first seat.
type session struct {
	client *Client
	gameID string
	out    *Output

	mu     sync.Mutex
	moves  []protocol.MoveEntry
	marker string
}

func runSession(gameID string, watchOnly bool) error {
	client, err := Dial(cfg.Server, cfg.Timeout)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	s := &session{
		client: client,
		gameID: gameID,
		out:    NewOutput(cfg.Output),
	}

	if err := client.Send(protocol.JoinGame{GameID: gameID}); err != nil {
		return err
	}

	recvDone := make(chan error, 1)
	go func() {
		recvDone <- s.recvLoop()
	}()

	if watchOnly {
		return s.waitRecv(recvDone)
	}

	inputDone := make(chan error, 1)
	go func() {
		inputDone <- s.inputLoop()
	}()

	select {
	case err := <-recvDone:
		return suppressClosed(err)
	case err := <-inputDone:
		_ = client.Close()
		return err
	}
}

func (s *session) waitRecv(recvDone <-chan error) error {
	return suppressClosed(<-recvDone)
}

// recvLoop prints server traffic and answers replay requests until the
// connection drops
func (s *session) recvLoop() error {
	for {
		msg, err := s.client.RecvWait()
		if err != nil {
			return err
		}
		if done := s.handleServer(msg); done {
			return nil
		}
	}
}

func (s *session) handleServer(msg protocol.Message) bool {
	switch m := msg.(type) {
	case protocol.GameIDResponse:
		s.mu.Lock()
		s.marker = m.Marker
		s.mu.Unlock()
		s.out.Print(RoleResult{Role: roleName(m.Role), Marker: m.Marker})
	case protocol.MoveRelay:
		s.mu.Lock()
		s.moves = append(s.moves, protocol.MoveEntry{X: m.X, Y: m.Y, Outcome: m.Outcome})
		s.mu.Unlock()
		s.out.PrintMessage(fmt.Sprintf("move %s (%d, %d) outcome %d", m.Marker, m.X, m.Y, m.Outcome))
	case protocol.ChatRelay:
		s.out.PrintMessage(fmt.Sprintf("chat: %s", m.Text))
	case protocol.ObserverSyncRequest:
		s.mu.Lock()
		moves := append([]protocol.MoveEntry(nil), s.moves...)
		s.mu.Unlock()
		if err := s.client.Send(protocol.ObserverSync{GameID: s.gameID, Moves: moves}); err != nil {
			s.out.PrintError(err)
		}
	case protocol.ObserverSyncFinal:
		s.mu.Lock()
		s.moves = append([]protocol.MoveEntry(nil), m.Moves...)
		s.mu.Unlock()
		s.out.PrintMessage(fmt.Sprintf("replay: %d move(s)", len(m.Moves)))
		for _, mv := range m.Moves {
			s.out.PrintMessage(fmt.Sprintf("  (%d, %d) outcome %d", mv.X, mv.Y, mv.Outcome))
		}
	case protocol.LookingForPlayer:
		s.out.PrintMessage("opponent left, waiting for a new player")
	case protocol.RoomKick:
		s.out.PrintMessage("room closed")
		return true
	case protocol.LoginResponse:
		s.out.Print(LoginResult{Approved: m.Approved, Text: m.Text})
	default:
		if cfg.Verbose {
			s.out.PrintMessage(fmt.Sprintf("ignoring signifier %d", msg.Signifier()))
		}
	}
	return false
}

// inputLoop reads session commands from stdin until EOF or quit
func (s *session) inputLoop() error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "move":
			if err := s.sendMove(fields[1:]); err != nil {
				s.out.PrintError(err)
			}
		case "chat":
			text := strings.TrimSpace(strings.TrimPrefix(line, "chat"))
			if err := s.client.Send(protocol.ChatToOpponent{GameID: s.gameID, Text: text}); err != nil {
				return err
			}
		case "back":
			if err := s.client.Send(protocol.BackOut{GameID: s.gameID}); err != nil {
				return err
			}
			return nil
		case "quit":
			return nil
		default:
			s.out.PrintError(fmt.Errorf("unknown command %q", fields[0]))
		}
	}
	return scanner.Err()
}

func (s *session) sendMove(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: move <x> <y> [outcome]")
	}
	vals := make([]int32, 3)
	for i, a := range args {
		n, err := strconv.ParseInt(a, 10, 32)
		if err != nil {
			return fmt.Errorf("bad number %q", a)
		}
		vals[i] = int32(n)
	}

	msg := protocol.MoveToOpponent{GameID: s.gameID, X: vals[0], Y: vals[1], Outcome: vals[2]}
	if err := s.client.Send(msg); err != nil {
		return err
	}

	// The server never echoes a sender's own moves, so the local log is the
	// only record of them. It only stays truthful while we hold a seat: the
	// server drops moves from anyone else, so an unseated session must not
	// record them either.
	s.mu.Lock()
	if s.seated() {
		s.moves = append(s.moves, protocol.MoveEntry{X: msg.X, Y: msg.Y, Outcome: msg.Outcome})
	}
	s.mu.Unlock()
	return nil
}

// seated reports whether the session holds one of the two seats. A lone
// first player carries the looking-for-player marker and is still seated.
// Callers must hold s.mu.
func (s *session) seated() bool {
	switch s.marker {
	case protocol.MarkerSeat0, protocol.MarkerSeat1, protocol.MarkerNone:
		return true
	default:
		return false
	}
}

// suppressClosed hides the read error produced by closing our own socket
func suppressClosed(err error) error {
	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
