package auth

import (
	"context"
	"sync"
	"time"
)

type memAccount struct {
	Account
	hash string
}

// MemoryProvider keeps accounts in process memory. Used when the database
// is disabled and in tests.
type MemoryProvider struct {
	mu    sync.RWMutex
	users map[string]*memAccount // key = NormalizeName(username)
	now   func() time.Time
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{users: make(map[string]*memAccount), now: time.Now}
}

func (m *MemoryProvider) Register(_ context.Context, username, password, displayName string) (*Account, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		displayName = username
	}
	key := NormalizeName(username)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[key]; ok {
		return nil, ErrUserExists
	}
	a := &memAccount{
		Account: Account{
			Username:    username,
			DisplayName: displayName,
			Color:       DefaultColor(username),
			CreatedAt:   m.now(),
		},
		hash: hash,
	}
	m.users[key] = a
	acc := a.Account
	return &acc, nil
}

func (m *MemoryProvider) Login(_ context.Context, username, password string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.users[NormalizeName(username)]
	if !ok || !CheckPassword(a.hash, password) {
		return nil, ErrInvalidCredentials
	}
	a.LastLogin = m.now()
	acc := a.Account
	return &acc, nil
}

func (m *MemoryProvider) Lookup(_ context.Context, username string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.users[NormalizeName(username)]
	if !ok {
		return nil, ErrNotFound
	}
	acc := a.Account
	return &acc, nil
}
