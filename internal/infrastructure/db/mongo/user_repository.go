package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fint/finance-tracker/internal/core/domain"
)

type UserRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{db: db, coll: db.Collection(collectionUsers)}
}

// mongoUser stores a null token as a BSON null so the partial unique index
// ignores it.
type mongoUser struct {
	ID           int64   `bson:"_id"`
	Username     string  `bson:"username"`
	PasswordHash string  `bson:"password_hash"`
	Token        *string `bson:"token"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextSequence(ctx, r.db, collectionUsers)
	if err != nil {
		return nil, err
	}

	doc := mongoUser{ID: id, Username: user.Username, PasswordHash: user.PasswordHash}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return toDomainUser(doc), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"token": token})
}

// SwapToken is a single-document conditional update; {token: nil} matches
// both a null and a missing field.
func (r *UserRepository) SwapToken(ctx context.Context, userID int64, expected, next string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": userID, "token": nil}
	if expected != "" {
		filter["token"] = expected
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"token": next}})
	if err != nil {
		return fmt.Errorf("swap token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTokenConflict
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return toDomainUser(mu), nil
}

func toDomainUser(mu mongoUser) *domain.User {
	u := &domain.User{ID: mu.ID, Username: mu.Username, PasswordHash: mu.PasswordHash}
	if mu.Token != nil {
		u.Token = *mu.Token
	}
	return u
}
