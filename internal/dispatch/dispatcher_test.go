package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkerrigan/roomrelay/internal/dependencies/mocks"
	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/protocol"
	"github.com/mkerrigan/roomrelay/internal/services/account"
	"github.com/mkerrigan/roomrelay/internal/services/room"
	"github.com/mkerrigan/roomrelay/internal/storage/memory"
	"github.com/mkerrigan/roomrelay/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	dispatcher *Dispatcher
	ctx        context.Context
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	accounts := account.New(memory.New(), clk, nil, logger)
	rooms := room.NewManager(clk, logger)
	s.dispatcher = New(accounts, rooms, logger)
	s.ctx = context.Background()
}

func (s *DispatcherSuite) dispatch(conn model.ConnID, msg protocol.Message) []room.Outbound {
	return s.dispatcher.Dispatch(s.ctx, conn, msg)
}

func (s *DispatcherSuite) TestSignupThenSigninScenario() {
	out := s.dispatch("c1", protocol.Signup{Username: "alice", Password: "p1"})
	s.Require().Len(out, 1)
	s.Equal(protocol.LoginResponse{Approved: true, Text: "New Account Created"}, out[0].Msg)

	out = s.dispatch("c1", protocol.Signup{Username: "alice", Password: "p2"})
	s.Require().Len(out, 1)
	s.Equal(protocol.LoginResponse{
		Approved: false,
		Text:     "Account already exists please proceed to sign in",
	}, out[0].Msg)

	out = s.dispatch("c1", protocol.Signin{Username: "alice", Password: "p1"})
	s.Require().Len(out, 1)
	s.Equal(protocol.LoginResponse{Approved: true, Text: "Sign in approved"}, out[0].Msg)

	out = s.dispatch("c1", protocol.Signin{Username: "alice", Password: "wrong"})
	s.Require().Len(out, 1)
	s.Equal(protocol.LoginResponse{
		Approved: false,
		Text:     "Wrong password for this username",
	}, out[0].Msg)
}

func (s *DispatcherSuite) TestSigninUnknownUser() {
	out := s.dispatch("c1", protocol.Signin{Username: "nobody", Password: "p"})
	s.Require().Len(out, 1)
	s.Equal(protocol.LoginResponse{
		Approved: false,
		Text:     "Username does not exist please proceed to sign up",
	}, out[0].Msg)
}

func (s *DispatcherSuite) TestJoinSequenceScenario() {
	out := s.dispatch("a", protocol.JoinGame{GameID: "room1"})
	s.Require().Len(out, 1)
	s.Equal(protocol.GameIDResponse{
		Role:   protocol.RoleLookingForPlayer,
		Marker: protocol.MarkerNone,
	}, out[0].Msg)

	out = s.dispatch("b", protocol.JoinGame{GameID: "room1"})
	s.Require().Len(out, 2)

	out = s.dispatch("c", protocol.JoinGame{GameID: "room1"})
	var observerRoles int
	for _, o := range out {
		if resp, ok := o.Msg.(protocol.GameIDResponse); ok && resp.Role == protocol.RoleObserver {
			s.Equal(model.ConnID("c"), o.To)
			observerRoles++
		}
	}
	s.Equal(1, observerRoles)
}

func (s *DispatcherSuite) TestMoveIsRelayedAndReplayForwarded() {
	s.dispatch("a", protocol.JoinGame{GameID: "room1"})
	s.dispatch("b", protocol.JoinGame{GameID: "room1"})
	s.dispatch("c", protocol.JoinGame{GameID: "room1"})

	out := s.dispatch("a", protocol.MoveToOpponent{GameID: "room1", X: 1, Y: 1, Outcome: 0})
	s.Require().Len(out, 2)
	for _, o := range out {
		s.NotEqual(model.ConnID("a"), o.To)
		s.Equal(protocol.MoveRelay{X: 1, Y: 1, Outcome: 0, Marker: "X"}, o.Msg)
	}

	// seat0 answers the replay request; the list goes to the observer
	out = s.dispatch("a", protocol.ObserverSync{
		GameID: "room1",
		Moves:  []protocol.MoveEntry{{X: 1, Y: 1, Outcome: 0}},
	})
	s.Require().Len(out, 1)
	s.Equal(model.ConnID("c"), out[0].To)
	s.IsType(protocol.ObserverSyncFinal{}, out[0].Msg)
}

func (s *DispatcherSuite) TestChatIsRelayedToOpponentOnly() {
	s.dispatch("a", protocol.JoinGame{GameID: "room1"})
	s.dispatch("b", protocol.JoinGame{GameID: "room1"})

	out := s.dispatch("b", protocol.ChatToOpponent{GameID: "room1", Text: "hi"})
	s.Require().Len(out, 1)
	s.Equal(model.ConnID("a"), out[0].To)
	s.Equal(protocol.ChatRelay{Text: "hi"}, out[0].Msg)
}

func (s *DispatcherSuite) TestUnknownRoomEarnsKick() {
	out := s.dispatch("a", protocol.BackOut{GameID: "nope"})
	s.Require().Len(out, 1)
	s.Equal(model.ConnID("a"), out[0].To)
	s.Equal(protocol.RoomKick{}, out[0].Msg)

	out = s.dispatch("a", protocol.MoveToOpponent{GameID: "nope", X: 0, Y: 0, Outcome: 0})
	s.Require().Len(out, 1)
	s.Equal(protocol.RoomKick{}, out[0].Msg)
}

func (s *DispatcherSuite) TestUnknownSignifierIsIgnored() {
	out := s.dispatch("a", protocol.Unknown{Sig: 99})
	s.Empty(out)
}

func (s *DispatcherSuite) TestClientTextProducesNoOutbound() {
	out := s.dispatch("a", protocol.ClientText{Text: "hello"})
	s.Empty(out)
}

func (s *DispatcherSuite) TestConnectionLostCleansRooms() {
	s.dispatch("a", protocol.JoinGame{GameID: "room1"})
	s.dispatch("b", protocol.JoinGame{GameID: "room1"})

	out := s.dispatcher.ConnectionLost("a")
	s.Require().Len(out, 1)
	s.Equal(model.ConnID("b"), out[0].To)
	s.Equal(protocol.LookingForPlayer{}, out[0].Msg)
}
