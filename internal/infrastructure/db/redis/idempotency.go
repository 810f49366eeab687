package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fint/finance-tracker/internal/core/domain"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// pendingValue marks a key whose create has not finished.
	pendingValue = "pending"
)

// IdempotencyStore maps a user's Idempotency-Key to the transaction it
// created. The value is "pending" from claim until the insert completes.
// Key format: idem:<user_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. A non-positive ttl falls back to 24h.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Claim reserves key with a pending marker (SET NX with the TTL). When the
// key is already held it returns the stored transaction id, or
// domain.ErrIdempotencyInProgress while the marker is still pending.
func (s *IdempotencyStore) Claim(ctx context.Context, userID int64, key string) (bool, int64, error) {
	k := s.key(userID, key)
	ok, err := s.client.SetNX(ctx, k, pendingValue, s.ttl).Result()
	if err != nil {
		return false, 0, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return true, 0, nil
	}

	val, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired or released between SETNX and GET; the client retries.
		return false, 0, domain.ErrIdempotencyInProgress
	}
	if err != nil {
		return false, 0, fmt.Errorf("idempotency lookup: %w", err)
	}
	if val == pendingValue {
		return false, 0, domain.ErrIdempotencyInProgress
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, 0, fmt.Errorf("idempotency lookup: corrupt value %q: %w", val, err)
	}
	return false, id, nil
}

// Complete replaces the pending marker with txID and restarts the TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, userID int64, key string, txID int64) error {
	if err := s.client.Set(ctx, s.key(userID, key), strconv.FormatInt(txID, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release deletes a claim whose create failed.
func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	if err := s.client.Del(ctx, s.key(userID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(userID int64, key string) string {
	return fmt.Sprintf("idem:%d:%s", userID, key)
}
