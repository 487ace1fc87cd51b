package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/storage"
)

// Storage is a Redis-backed implementation of the account store, for
// deployments where several relay instances share one directory
type Storage struct {
	client *redis.Client
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{client: client}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client) *Storage {
	return &Storage{client: client}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.AccountStore = (*Storage)(nil)

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return err
	}

	existing, err := s.client.Exists(ctx, accountKey(account.Username)).Result()
	if err != nil {
		return err
	}

	// Pipeline the record write and the order-list append
	pipe := s.client.Pipeline()
	pipe.Set(ctx, accountKey(account.Username), data, 0)
	if existing == 0 {
		pipe.RPush(ctx, accountOrderKey(), account.Username)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetAccount(ctx context.Context, username string) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	usernames, err := s.client.LRange(ctx, accountOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*model.Account, 0, len(usernames))
	for _, username := range usernames {
		account, err := s.GetAccount(ctx, username)
		if err != nil {
			if errors.Is(err, model.ErrAccountNotFound) {
				// record expired or deleted out of band; skip
				continue
			}
			return nil, fmt.Errorf("loading account %q: %w", username, err)
		}
		out = append(out, account)
	}
	return out, nil
}

func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, accountOrderKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
