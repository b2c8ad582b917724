package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/hongminglow/account-service/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInvalidRecord indicates a write with an empty email or password hash.
var ErrInvalidRecord = errors.New("invalid record")

// UserStore captures persistence operations needed by the account service.
//
// Insert must enforce email uniqueness atomically with the write. SetActive never
// turns a disabled account back on: the stored flag becomes (current AND active).
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	Insert(ctx context.Context, email, passwordHash string) (models.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error
	SetActive(ctx context.Context, id int64, active bool) error
	Close() error
}

// CheckNewUser rejects inserts with an empty email or password hash.
func CheckNewUser(email, passwordHash string) error {
	if strings.TrimSpace(email) == "" {
		return errors.Join(ErrInvalidRecord, errors.New("email is empty"))
	}
	return CheckPasswordHash(passwordHash)
}

// CheckPasswordHash rejects empty password hashes.
func CheckPasswordHash(passwordHash string) error {
	if passwordHash == "" {
		return errors.Join(ErrInvalidRecord, errors.New("password hash is empty"))
	}
	return nil
}
