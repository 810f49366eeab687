package domain

import (
	"errors"
	"fmt"
)

// Caller-facing error taxonomy. Every failure returned by the services wraps
// exactly one of these.
var (
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrUserExists     = fmt.Errorf("%w: username already exists", ErrConflict)
	ErrBadCredentials = fmt.Errorf("%w: incorrect username or password", ErrUnauthorized)
	ErrInvalidToken   = fmt.Errorf("%w: could not validate credentials", ErrUnauthorized)

	ErrTransactionNotFound = fmt.Errorf("%w: transaction not found", ErrNotFound)

	ErrNegativeAmount    = fmt.Errorf("%w: amount must be non-negative", ErrInvalidInput)
	ErrInvalidDate       = fmt.Errorf("%w: date must be formatted as YYYY-MM-DD", ErrInvalidInput)
	ErrMissingCredential = fmt.Errorf("%w: username and password are required", ErrInvalidInput)
)

// ErrUserNotFound is returned by user lookups. The authenticator never
// surfaces it directly.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenConflict signals a lost compare-and-swap on the session token.
var ErrTokenConflict = errors.New("session token changed concurrently")

// ErrIdempotencyInProgress is returned while an earlier request holding the
// same Idempotency-Key has not finished its create.
var ErrIdempotencyInProgress = fmt.Errorf("%w: a request with this Idempotency-Key is still in progress", ErrConflict)
