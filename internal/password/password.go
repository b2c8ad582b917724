// Package password hashes and verifies user passwords. Plaintext passwords must
// never be logged or persisted; only the strings returned by Hash are stored.
package password

import (
	"errors"
	"fmt"
	"strings"
)

// Supported algorithm names.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

var (
	// ErrMalformedHash means a stored hash could not be parsed. This is an
	// integrity fault, not a wrong password.
	ErrMalformedHash = errors.New("malformed password hash")

	// ErrPasswordTooLong is returned by Hash when the algorithm cannot accept the input.
	ErrPasswordTooLong = errors.New("password too long")
)

// Hasher turns plaintext passwords into salted, slow hashes and checks them.
//
// Verify reports (false, nil) for any mismatch and only errors with
// ErrMalformedHash when the stored value is unreadable.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// New returns a Multi hasher that writes hashes with algorithm and can still
// verify hashes produced by the other supported algorithm.
func New(algorithm string, bcryptCost int) (*Multi, error) {
	bc := NewBcrypt(bcryptCost)
	ar := NewArgon2id(DefaultArgon2Params)
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", AlgorithmBcrypt:
		return &Multi{primary: bc, bcrypt: bc, argon2: ar}, nil
	case AlgorithmArgon2id:
		return &Multi{primary: ar, bcrypt: bc, argon2: ar}, nil
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", algorithm)
	}
}

// Multi hashes with one algorithm and verifies by the stored hash's prefix.
type Multi struct {
	primary Hasher
	bcrypt  *Bcrypt
	argon2  *Argon2id
}

// Hash uses the configured algorithm.
func (m *Multi) Hash(plaintext string) (string, error) {
	return m.primary.Hash(plaintext)
}

// Verify picks the algorithm from the hash prefix.
func (m *Multi) Verify(plaintext, hash string) (bool, error) {
	switch {
	case isBcryptHash(hash):
		return m.bcrypt.Verify(plaintext, hash)
	case strings.HasPrefix(hash, argon2idPrefix):
		return m.argon2.Verify(plaintext, hash)
	default:
		return false, ErrMalformedHash
	}
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
