package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/fint/finance-tracker/internal/core/domain"
	"github.com/fint/finance-tracker/internal/core/ports"
)

// TransactionService implements the ownership-gated transaction use cases.
// The owner of every read and write is the authenticated user passed in;
// input never carries an owner.
type TransactionService struct {
	repo        ports.TransactionRepository
	idempotency ports.IdempotencyStore
	logger      zerolog.Logger
}

// NewTransactionService wires the service. idempotency may be nil, in which
// case Idempotency-Key values are ignored.
func NewTransactionService(repo ports.TransactionRepository, idempotency ports.IdempotencyStore, logger zerolog.Logger) *TransactionService {
	return &TransactionService{repo: repo, idempotency: idempotency, logger: logger}
}

// Create persists a new transaction owned by user. If an idempotency key is
// provided and already seen for this user, the earlier transaction is
// returned without side effects.
func (s *TransactionService) Create(ctx context.Context, user *domain.User, input ports.CreateTransactionInput) (*ports.CreateResult, error) {
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	key := input.IdempotencyKey
	claimed := false
	if key != "" && s.idempotency != nil {
		existing, ok, err := s.claim(ctx, user, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &ports.CreateResult{Transaction: existing, AlreadyExisted: true}, nil
		}
		claimed = ok
	}

	tx := newTransaction(user.ID, input.TransactionInput)
	if err := s.repo.Create(ctx, tx); err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create transaction")
		if claimed {
			if rerr := s.idempotency.Release(context.WithoutCancel(ctx), user.ID, key); rerr != nil {
				s.logger.Warn().Err(rerr).Int64("user_id", user.ID).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create transaction: %w", err)
	}

	if claimed {
		if err := s.idempotency.Complete(context.WithoutCancel(ctx), user.ID, key, tx.ID); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to store idempotency key")
		}
	}

	s.logger.Info().Int64("user_id", user.ID).Int64("transaction_id", tx.ID).Msg("transaction created")
	return &ports.CreateResult{Transaction: tx}, nil
}

// claim reserves key before the insert. It returns the transaction an
// earlier request already produced, or claimed=true when this request owns
// the key and must Complete or Release it. While the earlier request is
// still running the caller gets domain.ErrIdempotencyInProgress. A store
// outage degrades to a plain create.
func (s *TransactionService) claim(ctx context.Context, user *domain.User, key string) (*domain.Transaction, bool, error) {
	claimed, txID, err := s.idempotency.Claim(ctx, user.ID, key)
	switch {
	case errors.Is(err, domain.ErrIdempotencyInProgress):
		return nil, false, err
	case err != nil:
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("idempotency claim failed, creating without key")
		return nil, false, nil
	case claimed:
		return nil, true, nil
	}

	// The lookup goes through the owner-gated repository.
	existing, err := s.repo.FindByID(ctx, user.ID, txID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// The earlier transaction was deleted; this request takes the key over.
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("idempotent replay: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Int64("transaction_id", txID).Msg("idempotent replay")
	return existing, false, nil
}

// List returns every transaction owned by user in storage order.
func (s *TransactionService) List(ctx context.Context, user *domain.User) ([]*domain.Transaction, error) {
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	txs, err := s.repo.ListByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Update overwrites the mutable fields of a transaction owned by user.
// A transaction owned by someone else is reported as not found.
func (s *TransactionService) Update(ctx context.Context, user *domain.User, id int64, input ports.TransactionInput) (*domain.Transaction, error) {
	if user == nil {
		return nil, domain.ErrInvalidToken
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	tx := newTransaction(user.ID, input)
	tx.ID = id
	if err := s.repo.Update(ctx, user.ID, tx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Int64("transaction_id", id).Msg("transaction updated")
	return tx, nil
}

// Delete removes a transaction owned by user.
func (s *TransactionService) Delete(ctx context.Context, user *domain.User, id int64) error {
	if user == nil {
		return domain.ErrInvalidToken
	}
	if err := s.repo.Delete(ctx, user.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.logger.Info().Int64("user_id", user.ID).Int64("transaction_id", id).Msg("transaction deleted")
	return nil
}

// CategoryTotals sums the caller's amounts per category, sorted by
// category name.
func (s *TransactionService) CategoryTotals(ctx context.Context, user *domain.User) ([]ports.CategoryTotal, error) {
	txs, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		cat := tx.CategoryOf()
		sums[cat] = sums[cat].Add(tx.Amount)
	}

	out := make([]ports.CategoryTotal, 0, len(sums))
	for cat, total := range sums {
		out = append(out, ports.CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// Balance returns the caller's running balance ordered by date, ties broken
// by id.
func (s *TransactionService) Balance(ctx context.Context, user *domain.User) ([]ports.BalancePoint, error) {
	txs, err := s.List(ctx, user)
	if err != nil {
		return nil, err
	}

	sorted := make([]*domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID < sorted[j].ID
	})

	points := make([]ports.BalancePoint, 0, len(sorted))
	running := decimal.Zero
	for _, tx := range sorted {
		running = running.Add(tx.Amount)
		points = append(points, ports.BalancePoint{Date: tx.Date, Amount: tx.Amount, Balance: running})
	}
	return points, nil
}

func newTransaction(ownerID int64, in ports.TransactionInput) *domain.Transaction {
	return &domain.Transaction{
		UserID:      ownerID,
		Date:        in.Date.UTC(),
		Description: in.Description,
		Amount:      in.Amount,
		Category:    in.Category,
	}
}
