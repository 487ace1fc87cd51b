// Package account implements the account directory: uniqueness-checked
// signup and exact-match signin over a pluggable store.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mkerrigan/roomrelay/internal/dependencies/clock"
	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/storage"
)

// Service handles account signup and signin
type Service struct {
	store    storage.AccountStore
	clock    clock.Clock
	verifier Verifier
	logger   *slog.Logger
}

// New creates a new account service. A nil verifier defaults to
// PlainVerifier, which preserves the wire-compatible plaintext directory.
func New(store storage.AccountStore, clk clock.Clock, verifier Verifier, logger *slog.Logger) *Service {
	if verifier == nil {
		verifier = PlainVerifier{}
	}
	return &Service{
		store:    store,
		clock:    clk,
		verifier: verifier,
		logger:   logger.With(slog.String("component", "account")),
	}
}

// SignUp creates a new account. The store write completes before SignUp
// returns, so the caller only acknowledges durable signups.
// Returns model.ErrAccountExists if the username is taken.
func (s *Service) SignUp(ctx context.Context, username, password string) error {
	_, err := s.store.GetAccount(ctx, username)
	if err == nil {
		return model.ErrAccountExists
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return fmt.Errorf("checking username: %w", err)
	}

	stored, err := s.verifier.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	account := &model.Account{
		Username:  username,
		Password:  stored,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.SaveAccount(ctx, account); err != nil {
		return fmt.Errorf("saving account: %w", err)
	}

	s.logger.Info("account created", slog.String("username", username))
	return nil
}

// SignIn authenticates an existing account. Username lookup is
// case-sensitive exact match. Returns model.ErrAccountNotFound for an
// unknown username and model.ErrWrongPassword for a bad password.
func (s *Service) SignIn(ctx context.Context, username, password string) error {
	account, err := s.store.GetAccount(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.ErrAccountNotFound
		}
		return fmt.Errorf("looking up account: %w", err)
	}

	if !s.verifier.Verify(account.Password, password) {
		return model.ErrWrongPassword
	}

	s.logger.Info("signin approved", slog.String("username", username))
	return nil
}

// Count returns the number of registered accounts
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountAccounts(ctx)
}
