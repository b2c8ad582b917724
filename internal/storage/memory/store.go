// Package memory implements storage.UserStore in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hongminglow/account-service/internal/models"
	"github.com/hongminglow/account-service/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in maps guarded by a single lock, so the email check and the
// insert happen under the same critical section.
type Store struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[int64]models.User
	byEmail map[string]int64
	now     func() time.Time
}

// NewUserStore returns an empty store. IDs start at 1.
func NewUserStore() *Store {
	return &Store{
		byID:    make(map[int64]models.User),
		byEmail: make(map[string]int64),
		now:     time.Now,
	}
}

// FindByEmail fetches a user by exact email.
func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.byID[id], nil
}

// FindByID fetches a user by id.
func (s *Store) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// Insert creates a user; the email check and write happen under one lock.
func (s *Store) Insert(_ context.Context, email, passwordHash string) (models.User, error) {
	if err := storage.CheckNewUser(email, passwordHash); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextID++
	now := s.now().UTC()
	user := models.User{
		ID:           s.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[user.ID] = user
	s.byEmail[email] = user.ID
	return user, nil
}

// UpdatePasswordHash replaces the stored hash.
func (s *Store) UpdatePasswordHash(_ context.Context, id int64, passwordHash string) error {
	if err := storage.CheckPasswordHash(passwordHash); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = s.now().UTC()
	s.byID[id] = user
	return nil
}

// SetActive can only clear the flag; a disabled account stays disabled.
func (s *Store) SetActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	user.IsActive = user.IsActive && active
	user.UpdatedAt = s.now().UTC()
	s.byID[id] = user
	return nil
}

// Delete removes a user. Only used to simulate out-of-band deletion.
func (s *Store) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.byID[id]; ok {
		delete(s.byEmail, user.Email)
		delete(s.byID, id)
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
