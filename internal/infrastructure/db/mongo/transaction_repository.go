package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fint/finance-tracker/internal/core/domain"
)

// TransactionRepository implements ports.TransactionRepository using MongoDB.
// Every filter on an existing document includes user_id.
type TransactionRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{db: db, col: db.Collection(collectionTransactions)}
}

// mongoTransaction keeps amount as a decimal string and date as YYYY-MM-DD,
// the same representation as the relational store.
type mongoTransaction struct {
	ID          int64   `bson:"_id"`
	UserID      int64   `bson:"user_id"`
	Date        string  `bson:"date"`
	Description *string `bson:"description"`
	Amount      string  `bson:"amount"`
	Category    *string `bson:"category"`
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextSequence(ctx, r.db, collectionTransactions)
	if err != nil {
		return err
	}

	doc := toMongoTransaction(tx)
	doc.ID = id
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	tx.ID = id
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, ownerID, id int64) (*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mongoTransaction
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": ownerID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return toDomainTransaction(doc)
}

// ListByOwner returns the owner's documents in id (insertion) order.
func (r *TransactionRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": ownerID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer cur.Close(ctx)

	out := []*domain.Transaction{}
	for cur.Next(ctx) {
		var doc mongoTransaction
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode transaction: %w", err)
		}
		tx, err := toDomainTransaction(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepository) Update(ctx context.Context, ownerID int64, tx *domain.Transaction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoTransaction(tx)
	update := bson.M{"$set": bson.M{
		"date":        doc.Date,
		"description": doc.Description,
		"amount":      doc.Amount,
		"category":    doc.Category,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": tx.ID, "user_id": ownerID}, update)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, ownerID, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": ownerID})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func toMongoTransaction(tx *domain.Transaction) mongoTransaction {
	return mongoTransaction{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Date:        domain.FormatDate(tx.Date),
		Description: tx.Description,
		Amount:      tx.Amount.String(),
		Category:    tx.Category,
	}
}

func toDomainTransaction(doc mongoTransaction) (*domain.Transaction, error) {
	d, err := domain.ParseDate(doc.Date)
	if err != nil {
		return nil, fmt.Errorf("stored date %q: %w", doc.Date, err)
	}
	amount, err := decimal.NewFromString(doc.Amount)
	if err != nil {
		return nil, fmt.Errorf("stored amount %q: %w", doc.Amount, err)
	}
	return &domain.Transaction{
		ID:          doc.ID,
		UserID:      doc.UserID,
		Date:        d,
		Description: doc.Description,
		Amount:      amount,
		Category:    doc.Category,
	}, nil
}
