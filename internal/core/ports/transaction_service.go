package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fint/finance-tracker/internal/core/domain"
)

// TransactionInput carries the mutable fields of a transaction. It has no
// owner field: the owner always comes from the authenticated user.
type TransactionInput struct {
	Date        time.Time
	Description *string
	Amount      decimal.Decimal
	Category    *string
}

// CreateTransactionInput is TransactionInput plus the optional
// Idempotency-Key header value.
type CreateTransactionInput struct {
	TransactionInput
	IdempotencyKey string
}

// CreateResult is returned by Create.
type CreateResult struct {
	Transaction *domain.Transaction
	// AlreadyExisted is true when the Idempotency-Key matched an earlier create.
	AlreadyExisted bool
}

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}

// BalancePoint is one step of the running balance.
type BalancePoint struct {
	Date    time.Time
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

// TransactionService defines the ownership-gated use cases. user must be
// the value returned by AuthService.Authenticate.
type TransactionService interface {
	Create(ctx context.Context, user *domain.User, input CreateTransactionInput) (*CreateResult, error)
	List(ctx context.Context, user *domain.User) ([]*domain.Transaction, error)
	Update(ctx context.Context, user *domain.User, id int64, input TransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, user *domain.User, id int64) error
	CategoryTotals(ctx context.Context, user *domain.User) ([]CategoryTotal, error)
	Balance(ctx context.Context, user *domain.User) ([]BalancePoint, error)
}
