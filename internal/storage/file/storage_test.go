package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mkerrigan/roomrelay/internal/model"
)

type StorageSuite struct {
	suite.Suite
	dir  string
	path string
	ctx  context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.path = filepath.Join(s.dir, "accounts.txt")
	s.ctx = context.Background()
}

func (s *StorageSuite) TestAbsentFileMeansEmptyStore() {
	store, err := New(s.path)
	s.Require().NoError(err)

	n, err := store.CountAccounts(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)
}

func (s *StorageSuite) TestSaveRewritesFile() {
	store, err := New(s.path)
	s.Require().NoError(err)

	s.Require().NoError(store.SaveAccount(s.ctx, &model.Account{Username: "alice", Password: "p1"}))
	s.Require().NoError(store.SaveAccount(s.ctx, &model.Account{Username: "bob", Password: "p2"}))

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)
	s.Equal("alice,p1\nbob,p2\n", string(data))
}

func (s *StorageSuite) TestLoadExistingFile() {
	s.Require().NoError(os.WriteFile(s.path, []byte("alice,p1\nbob,p2\n"), 0o644))

	store, err := New(s.path)
	s.Require().NoError(err)

	account, err := store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("p1", account.Password)

	accounts, err := store.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(accounts, 2)
	s.Equal("bob", accounts[1].Username)
}

func (s *StorageSuite) TestLoadRejectsMalformedLine() {
	s.Require().NoError(os.WriteFile(s.path, []byte("no-comma-here\n"), 0o644))

	_, err := New(s.path)
	s.Error(err)
}

func (s *StorageSuite) TestSurvivesReload() {
	store, err := New(s.path)
	s.Require().NoError(err)
	s.Require().NoError(store.SaveAccount(s.ctx, &model.Account{Username: "alice", Password: "p1"}))

	reloaded, err := New(s.path)
	s.Require().NoError(err)

	account, err := reloaded.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("p1", account.Password)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	store, err := New(s.path)
	s.Require().NoError(err)

	_, err = store.GetAccount(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrAccountNotFound)
}
