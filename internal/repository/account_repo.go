package repository

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/google/uuid"
	"github.com/pipeline-entry/internal/config"
)

// Account is a stub backend user
type Account struct {
	ID       int64
	Username string
	Role     string
	password string
}

// accountRepo is the in-memory implementation of AccountRepository
type accountRepo struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	tokens   map[string]*Account
}

// NewAccountRepo creates a repository seeded with the given users. Ids are
// assigned in order starting at 1.
func NewAccountRepo(users []config.StubUser) AccountRepository {
	r := &accountRepo{
		accounts: make(map[string]*Account, len(users)),
		tokens:   make(map[string]*Account),
	}
	for i, u := range users {
		r.accounts[u.Username] = &Account{
			ID:       int64(i + 1),
			Username: u.Username,
			Role:     u.Role,
			password: u.Password,
		}
	}
	return r
}

// Authenticate returns the account for valid credentials, or nil, nil
func (r *accountRepo) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[username]
	if !ok || subtle.ConstantTimeCompare([]byte(account.password), []byte(password)) != 1 {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

// IssueToken creates a new opaque bearer token for the account
func (r *accountRepo) IssueToken(ctx context.Context, account *Account) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.accounts[account.Username]
	if !ok {
		return "", ErrNotFound
	}
	token := uuid.New().String()
	r.tokens[token] = stored
	return token, nil
}

// GetByToken resolves a bearer token. An unknown token yields nil, nil.
func (r *accountRepo) GetByToken(ctx context.Context, token string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.tokens[token]
	if !ok {
		return nil, nil
	}
	cp := *account
	return &cp, nil
}

// Count returns the number of accounts
func (r *accountRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts), nil
}
