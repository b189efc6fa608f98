package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory StoreAPI used by tests and STORE_DRIVER=memory.
type Memory struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[string]User)}
}

func (m *Memory) FindActiveUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email && user.Status == UserStatusActive {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (m *Memory) CreateUser(_ context.Context, user User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return "", ErrUserExists
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user.ID, nil
}

func (m *Memory) UpdateLastLogin(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	now := time.Now()
	user.LastLogin = &now
	m.users[userID] = user
	return nil
}
