package memory

import (
	"context"
	"sync"

	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/storage"
)

// Storage is an in-memory implementation of the account store
type Storage struct {
	mu sync.RWMutex

	accounts map[string]*model.Account
	order    []string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts: make(map[string]*model.Account),
	}
}

// Ensure Storage implements the interface
var _ storage.AccountStore = (*Storage)(nil)

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Username]; !ok {
		s.order = append(s.order, account.Username)
	}
	s.accounts[account.Username] = account
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[username]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return account, nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Account, 0, len(s.order))
	for _, username := range s.order {
		out = append(out, s.accounts[username])
	}
	return out, nil
}

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}
