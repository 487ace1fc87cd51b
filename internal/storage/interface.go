package storage

import (
	"context"

	"github.com/mkerrigan/roomrelay/internal/model"
)

// AccountStore defines the interface for account persistence.
//
// Room state is deliberately not persisted: rooms live and die with the
// process and are owned by the room manager.
type AccountStore interface {
	// SaveAccount persists a new account. The write must be durable before
	// SaveAccount returns; the caller does not acknowledge a signup until
	// then.
	SaveAccount(ctx context.Context, account *model.Account) error

	// GetAccount looks up an account by exact username.
	// Returns model.ErrAccountNotFound if no such account exists.
	GetAccount(ctx context.Context, username string) (*model.Account, error)

	// ListAccounts returns every stored account in creation order
	ListAccounts(ctx context.Context) ([]*model.Account, error)

	// CountAccounts returns the number of stored accounts
	CountAccounts(ctx context.Context) (int, error)
}
