package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mkerrigan/roomrelay/internal/dependencies/mocks"
	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/storage/memory"
	"github.com/mkerrigan/roomrelay/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, nil, testutil.NopLogger())
	s.ctx = context.Background()
}

// SignUp tests

func (s *ServiceSuite) TestSignUpSucceeds() {
	err := s.service.SignUp(s.ctx, "alice", "p1")
	s.Require().NoError(err)

	account, err := s.storage.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("p1", account.Password)
	s.Equal(s.clock.CurrentTime, account.CreatedAt)
}

func (s *ServiceSuite) TestSignUpFailsIfUsernameExists() {
	s.Require().NoError(s.service.SignUp(s.ctx, "alice", "p1"))

	err := s.service.SignUp(s.ctx, "alice", "p2")
	s.ErrorIs(err, model.ErrAccountExists)

	// Original password untouched
	account, _ := s.storage.GetAccount(s.ctx, "alice")
	s.Equal("p1", account.Password)
}

// SignIn tests

func (s *ServiceSuite) TestSignInApproved() {
	s.Require().NoError(s.service.SignUp(s.ctx, "alice", "p1"))

	s.NoError(s.service.SignIn(s.ctx, "alice", "p1"))
}

func (s *ServiceSuite) TestSignInWrongPassword() {
	s.Require().NoError(s.service.SignUp(s.ctx, "alice", "p1"))

	err := s.service.SignIn(s.ctx, "alice", "wrong")
	s.ErrorIs(err, model.ErrWrongPassword)
}

func (s *ServiceSuite) TestSignInUnknownUser() {
	err := s.service.SignIn(s.ctx, "nobody", "p1")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *ServiceSuite) TestSignInIsCaseSensitive() {
	s.Require().NoError(s.service.SignUp(s.ctx, "alice", "p1"))

	err := s.service.SignIn(s.ctx, "Alice", "p1")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

// Verifier tests

func (s *ServiceSuite) TestBcryptVerifierHashesPasswords() {
	service := New(s.storage, s.clock, BcryptVerifier{}, testutil.NopLogger())

	s.Require().NoError(service.SignUp(s.ctx, "alice", "p1"))

	account, err := s.storage.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.NotEqual("p1", account.Password)

	s.NoError(service.SignIn(s.ctx, "alice", "p1"))
	s.ErrorIs(service.SignIn(s.ctx, "alice", "wrong"), model.ErrWrongPassword)
}

func (s *ServiceSuite) TestCount() {
	n, err := s.service.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.Require().NoError(s.service.SignUp(s.ctx, "alice", "p1"))

	n, err = s.service.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
}
