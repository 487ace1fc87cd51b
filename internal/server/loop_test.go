package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkerrigan/roomrelay/internal/dependencies/mocks"
	"github.com/mkerrigan/roomrelay/internal/dispatch"
	"github.com/mkerrigan/roomrelay/internal/protocol"
	"github.com/mkerrigan/roomrelay/internal/services/account"
	"github.com/mkerrigan/roomrelay/internal/services/room"
	"github.com/mkerrigan/roomrelay/internal/storage/memory"
	"github.com/mkerrigan/roomrelay/internal/testutil"
	"github.com/mkerrigan/roomrelay/internal/transport"
)

// fakeLink collects frames written to one connection
type fakeLink struct {
	mu     sync.Mutex
	frames [][]byte
}

func (l *fakeLink) WriteFrame(frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	l.frames = append(l.frames, cp)
	return nil
}

func (l *fakeLink) Close() error { return nil }

// messages decodes everything written so far
func (l *fakeLink) messages() []protocol.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []protocol.Message
	for _, f := range l.frames {
		msg, err := protocol.DecodeServerFrame(f)
		if err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

type LoopSuite struct {
	suite.Suite
	events   chan transport.Event
	registry *transport.Registry
	rooms    *room.Manager
	cancel   context.CancelFunc
	done     chan struct{}
}

func TestLoopSuite(t *testing.T) {
	suite.Run(t, new(LoopSuite))
}

func (s *LoopSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	s.events = make(chan transport.Event, 128)
	s.registry = transport.NewRegistry(mocks.NewMockRandom(), logger)
	accounts := account.New(memory.New(), clk, nil, logger)
	s.rooms = room.NewManager(clk, logger)
	dispatcher := dispatch.New(accounts, s.rooms, logger)
	loop := NewLoop(s.events, s.registry, dispatcher, DefaultLoopConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = loop.Run(ctx)
	}()
}

func (s *LoopSuite) TearDownTest() {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(time.Second):
		s.Fail("loop did not stop")
	}
}

// connect registers a fake peer and announces it to the loop
func (s *LoopSuite) connect() (*transport.Conn, *fakeLink) {
	link := &fakeLink{}
	c := s.registry.Add(link)
	s.events <- transport.Event{Type: transport.EventConnected, Conn: c.ID()}
	return c, link
}

func (s *LoopSuite) frame(c *transport.Conn, msg protocol.Message) {
	s.events <- transport.Event{Type: transport.EventFrame, Conn: c.ID(), Frame: protocol.Encode(msg)}
}

func (s *LoopSuite) waitForMessages(link *fakeLink, n int) []protocol.Message {
	s.Require().Eventually(func() bool {
		return len(link.messages()) >= n
	}, time.Second, time.Millisecond)
	return link.messages()
}

func (s *LoopSuite) TestJoinRoundTripThroughLoop() {
	a, linkA := s.connect()
	b, linkB := s.connect()

	s.frame(a, protocol.JoinGame{GameID: "room1"})
	msgs := s.waitForMessages(linkA, 1)
	s.Equal(protocol.GameIDResponse{
		Role:   protocol.RoleLookingForPlayer,
		Marker: protocol.MarkerNone,
	}, msgs[0])

	s.frame(b, protocol.JoinGame{GameID: "room1"})
	msgsA := s.waitForMessages(linkA, 2)
	msgsB := s.waitForMessages(linkB, 1)
	s.Equal(protocol.GameIDResponse{
		Role:   protocol.RolePlayerMove,
		Marker: protocol.MarkerSeat0,
	}, msgsA[1])
	s.Equal(protocol.GameIDResponse{
		Role:   protocol.RoleOpponentMove,
		Marker: protocol.MarkerSeat1,
	}, msgsB[0])
}

func (s *LoopSuite) TestMalformedFrameIsDroppedConnectionSurvives() {
	a, linkA := s.connect()

	s.events <- transport.Event{
		Type:  transport.EventFrame,
		Conn:  a.ID(),
		Frame: []byte{5, 0, 0, 0, 200, 0, 0, 0}, // length past end
	}
	s.frame(a, protocol.JoinGame{GameID: "room1"})

	msgs := s.waitForMessages(linkA, 1)
	s.IsType(protocol.GameIDResponse{}, msgs[0])
}

func (s *LoopSuite) TestDisconnectPromotesOpponent() {
	a, _ := s.connect()
	b, linkB := s.connect()

	s.frame(a, protocol.JoinGame{GameID: "room1"})
	s.frame(b, protocol.JoinGame{GameID: "room1"})
	s.waitForMessages(linkB, 1)

	s.registry.Remove(a.ID())
	s.events <- transport.Event{Type: transport.EventDisconnected, Conn: a.ID()}

	msgs := s.waitForMessages(linkB, 2)
	s.Equal(protocol.LookingForPlayer{}, msgs[1])

	s.Require().Eventually(func() bool {
		snap := s.rooms.Snapshot()
		return len(snap) == 1 && snap[0].Seat0 == string(b.ID())
	}, time.Second, time.Millisecond)
}

func (s *LoopSuite) TestSignupThroughLoop() {
	a, linkA := s.connect()

	s.frame(a, protocol.Signup{Username: "alice", Password: "p1"})

	msgs := s.waitForMessages(linkA, 1)
	s.Equal(protocol.LoginResponse{Approved: true, Text: "New Account Created"}, msgs[0])
}
