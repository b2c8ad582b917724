// Package account implements registration, login and the profile lifecycle
// (Active -> Disabled) on top of a credential store.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/hongminglow/account-service/internal/logging"
	"github.com/hongminglow/account-service/internal/models"
	"github.com/hongminglow/account-service/internal/password"
	"github.com/hongminglow/account-service/internal/storage"
)

// TokenIssuer mints access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Profile is the public view of a user.
type Profile struct {
	ID       int64
	Email    string
	IsActive bool
}

// Service owns the account lifecycle.
type Service struct {
	store  storage.UserStore
	hasher password.Hasher
	tokens TokenIssuer
	log    logging.Logger

	// dummyHash is verified against when the email is unknown so a miss costs
	// the same as a wrong password.
	dummyHash func() (string, error)
}

// NewService constructs the account service.
func NewService(store storage.UserStore, hasher password.Hasher, tokens TokenIssuer, log logging.Logger) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		log:    log.With("component", "account"),
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash(uuid.NewString())
		}),
	}
}

type credentials struct {
	Email    string
	Password string
}

func (c credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required.Error("email is required")),
		validation.Field(&c.Password, validation.Required.Error("password is required")),
	)
}

// Register creates an active user with a freshly hashed password. Surrounding
// whitespace is stripped from the email; case is kept.
func (s *Service) Register(ctx context.Context, email, plaintext string) error {
	email = strings.TrimSpace(email)
	if err := (credentials{Email: email, Password: plaintext}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hash, err := s.hash(plaintext)
	if err != nil {
		return err
	}

	user, err := s.store.Insert(ctx, email, hash)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return nil
}

// Authenticate checks credentials and returns a signed access token.
// Disabled accounts are reported only after the password has been verified.
func (s *Service) Authenticate(ctx context.Context, email, plaintext string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || plaintext == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("find user: %w", err)
		}
		if dummy, herr := s.dummyHash(); herr == nil {
			_, _ = s.hasher.Verify(plaintext, dummy)
		}
		return "", ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		s.log.Debug(ctx, "login rejected", "user_id", user.ID)
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrAccountDisabled
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// GetProfile returns the public view of the user.
func (s *Service) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(user), nil
}

// UpdateProfile applies a partial update. A nil password leaves the account unchanged.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, newPassword *string) error {
	if _, err := s.find(ctx, userID); err != nil {
		return err
	}
	if newPassword == nil {
		return nil
	}
	if err := validation.Validate(*newPassword, validation.Required.Error("password must not be empty")); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	hash, err := s.hash(*newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}
	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// Deactivate disables the account. Deactivating twice is not an error.
func (s *Service) Deactivate(ctx context.Context, userID int64) error {
	if err := s.store.SetActive(ctx, userID, false); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deactivate user: %w", err)
	}
	s.log.Info(ctx, "user deactivated", "user_id", userID)
	return nil
}

// ResolveActive returns ErrUnauthorized unless userID names an existing, active account.
func (s *Service) ResolveActive(ctx context.Context, userID int64) error {
	user, err := s.find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if !user.IsActive {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) find(ctx context.Context, userID int64) (models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user %d: %w", userID, err)
	}
	return user, nil
}

func (s *Service) hash(plaintext string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func toProfile(u models.User) Profile {
	return Profile{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}
