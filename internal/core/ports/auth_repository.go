package ports

import (
	"context"

	"github.com/fint/finance-tracker/internal/core/domain"
)

// UserRepository is the credential store: usernames, password hashes and
// the single active session token per user.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrUserExists when the
	// username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByToken returns the user whose current token equals token, or
	// domain.ErrUserNotFound.
	FindByToken(ctx context.Context, token string) (*domain.User, error)
	// SwapToken sets the user's token to next only if it still equals
	// expected (empty = NULL). Returns domain.ErrTokenConflict otherwise.
	SwapToken(ctx context.Context, userID int64, expected, next string) error
}
