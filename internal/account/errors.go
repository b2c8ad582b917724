package account

import "errors"

var (
	// ErrInvalidInput indicates a request that failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict indicates the email is already registered.
	ErrConflict = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a caller whose token no longer maps to an active account.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrAccountDisabled is returned on login to a deactivated account.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrNotFound indicates the user id no longer resolves.
	ErrNotFound = errors.New("user not found")
)
