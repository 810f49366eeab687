package ports

import (
	"context"

	"github.com/fint/finance-tracker/internal/core/domain"
)

// TransactionRepository defines persistence operations for transactions.
//
// Every method except Create takes the owner id and filters on it; a row
// owned by someone else behaves exactly like a missing row and yields
// domain.ErrTransactionNotFound.
type TransactionRepository interface {
	// Create assigns tx.ID. tx.UserID must already be set by the caller.
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, ownerID, id int64) (*domain.Transaction, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Transaction, error)
	// Update overwrites date, description, amount and category of the row
	// matching (tx.ID, ownerID).
	Update(ctx context.Context, ownerID int64, tx *domain.Transaction) error
	Delete(ctx context.Context, ownerID, id int64) error
}

// IdempotencyStore remembers which transaction a client-supplied
// Idempotency-Key produced, per user. The key is claimed before the insert
// so concurrent retries cannot both create.
type IdempotencyStore interface {
	// Claim reserves key. When the key is already held it returns
	// claimed=false with the transaction id it produced, or
	// domain.ErrIdempotencyInProgress while that create is still running.
	Claim(ctx context.Context, userID int64, key string) (claimed bool, txID int64, err error)
	// Complete binds a claimed key to the created transaction.
	Complete(ctx context.Context, userID int64, key string, txID int64) error
	// Release drops a claim whose create failed so the client can retry.
	Release(ctx context.Context, userID int64, key string) error
}
