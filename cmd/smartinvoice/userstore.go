package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"smartinvoice/internal/core"
)

// memoryUserStore keeps accounts in process memory. Paired with the memory
// invoice backend for demo runs without a database file.
type memoryUserStore struct {
	mu      sync.RWMutex
	byEmail map[string]memoryUser
}

type memoryUser struct {
	profile core.UserProfile
	hash    string
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{byEmail: make(map[string]memoryUser)}
}

func (s *memoryUserStore) CreateUser(ctx context.Context, user core.UserProfile, passwordHash string) (core.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return core.UserProfile{}, fmt.Errorf("insert user: email %s already exists", user.Email)
	}
	user.ID = uuid.NewString()
	s.byEmail[user.Email] = memoryUser{profile: user, hash: passwordHash}
	return user, nil
}

func (s *memoryUserStore) GetUserByEmail(ctx context.Context, email string) (core.UserProfile, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byEmail[email]
	if !ok {
		return core.UserProfile{}, "", core.ErrRecordNotFound
	}
	return u.profile, u.hash, nil
}

func (s *memoryUserStore) GetUserByID(ctx context.Context, id string) (core.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.byEmail {
		if u.profile.ID == id {
			return u.profile, nil
		}
	}
	return core.UserProfile{}, core.ErrRecordNotFound
}
