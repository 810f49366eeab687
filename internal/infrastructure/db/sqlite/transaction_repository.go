package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fint/finance-tracker/internal/core/domain"
)

// TransactionRepository implements ports.TransactionRepository. Every
// statement that touches an existing row filters on user_id.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = "id, user_id, date, description, amount, category"

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO transactions (user_id, date, description, amount, category) VALUES (?, ?, ?, ?, ?)",
		tx.UserID, domain.FormatDate(tx.Date), nullString(tx.Description), tx.Amount.String(), nullString(tx.Category),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert transaction: last insert id: %w", err)
	}
	tx.ID = id
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, ownerID, id int64) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ? AND user_id = ?",
		id, ownerID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return tx, nil
}

// ListByOwner returns the owner's rows in insertion order.
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? ORDER BY id",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []*domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepository) Update(ctx context.Context, ownerID int64, tx *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET date = ?, description = ?, amount = ?, category = ? WHERE id = ? AND user_id = ?",
		domain.FormatDate(tx.Date), nullString(tx.Description), tx.Amount.String(), nullString(tx.Category), tx.ID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOneRow(res)
}

func (r *TransactionRepository) Delete(ctx context.Context, ownerID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		tx          domain.Transaction
		day         string
		description sql.NullString
		category    sql.NullString
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &day, &description, &tx.Amount, &category); err != nil {
		return nil, err
	}

	d, err := domain.ParseDate(day)
	if err != nil {
		return nil, fmt.Errorf("stored date %q: %w", day, err)
	}
	tx.Date = d
	tx.Description = stringPtr(description)
	tx.Category = stringPtr(category)
	return &tx, nil
}
