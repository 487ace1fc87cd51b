// Package file implements the account store as a line-oriented text file,
// one "username,password" pair per line.
//
// The whole file is loaded into memory at construction and rewritten in full
// on every save. That matches the on-disk format this server has always
// used; at the account counts it serves, rewriting is cheaper than being
// clever.
package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mkerrigan/roomrelay/internal/model"
	"github.com/mkerrigan/roomrelay/internal/storage"
)

// Storage is a flat-file implementation of the account store
type Storage struct {
	path string

	mu       sync.RWMutex
	accounts map[string]*model.Account
	order    []string
}

// Ensure Storage implements the interface
var _ storage.AccountStore = (*Storage)(nil)

// New creates a file-backed store, loading any existing accounts from path.
// An absent file is not an error; the store starts empty.
func New(path string) (*Storage, error) {
	s := &Storage{
		path:     path,
		accounts: make(map[string]*model.Account),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("opening account file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		username, password, ok := strings.Cut(line, ",")
		if !ok {
			return fmt.Errorf("malformed account line %q in %s", line, s.path)
		}
		if _, exists := s.accounts[username]; !exists {
			s.order = append(s.order, username)
		}
		s.accounts[username] = &model.Account{Username: username, Password: password}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading account file: %w", err)
	}
	return nil
}

// SaveAccount records the account and rewrites the backing file. The file is
// written to a temp file and renamed so a crash mid-write cannot corrupt the
// existing data.
func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Username]; !ok {
		s.order = append(s.order, account.Username)
	}
	s.accounts[account.Username] = account

	return s.rewrite()
}

func (s *Storage) rewrite() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".accounts-*")
	if err != nil {
		return fmt.Errorf("creating temp account file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, username := range s.order {
		if _, err := fmt.Fprintf(w, "%s,%s\n", username, s.accounts[username].Password); err != nil {
			tmp.Close()
			return fmt.Errorf("writing account file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing account file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing account file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing account file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing account file: %w", err)
	}
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
