// internal/domain/errors.go
package domain

import "errors"

var (
	// ErrNotFound covers both a missing user and a user without accounts.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when registering an already used email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrBadCredentials is returned on a login password mismatch.
	ErrBadCredentials = errors.New("incorrect password")
)
