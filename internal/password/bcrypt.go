package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is used when no cost is configured.
const DefaultBcryptCost = 12

// Bcrypt hashes passwords with bcrypt at a fixed cost.
type Bcrypt struct {
	Cost int
}

// NewBcrypt clamps cost into bcrypt's accepted range; zero or negative selects DefaultBcryptCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Bcrypt{Cost: cost}
}

// Hash returns a bcrypt hash of plaintext at b.Cost.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(h), nil
}

// Verify compares plaintext against a bcrypt hash.
func (b *Bcrypt) Verify(plaintext, hash string) (bool, error) {
	if plaintext == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, errors.Join(ErrMalformedHash, err)
	}
}
