package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/fint/finance-tracker/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu            sync.Mutex
	nextID        int64
	byName        map[string]*domain.User
	swapConflicts int // SwapToken fails with ErrTokenConflict this many times
	swapCalls     int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byName: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	stored := cloneUser(user)
	stored.ID = r.nextID
	r.byName[stored.Username] = stored
	return cloneUser(stored), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byName {
		if u.Token != "" && u.Token == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SwapToken(_ context.Context, userID int64, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapCalls++
	for _, u := range r.byName {
		if u.ID != userID {
			continue
		}
		if r.swapConflicts > 0 {
			r.swapConflicts--
			// Simulate a concurrent login that won the race.
			u.Token = "concurrent-" + u.Username
			return domain.ErrTokenConflict
		}
		if u.Token != expected {
			return domain.ErrTokenConflict
		}
		u.Token = next
		return nil
	}
	return domain.ErrUserNotFound
}

type stubTransactionRepo struct {
	mu        sync.Mutex
	nextID    int64
	rows      []*domain.Transaction
	createErr error
}

func newStubTransactionRepo() *stubTransactionRepo {
	return &stubTransactionRepo{}
}

func cloneTx(tx *domain.Transaction) *domain.Transaction {
	clone := *tx
	return &clone
}

func (r *stubTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	tx.ID = r.nextID
	r.rows = append(r.rows, cloneTx(tx))
	return nil
}

// find mirrors the real stores: the owner filter is part of the lookup.
func (r *stubTransactionRepo) find(ownerID, id int64) (int, bool) {
	for i, tx := range r.rows {
		if tx.ID == id && tx.UserID == ownerID {
			return i, true
		}
	}
	return -1, false
}

func (r *stubTransactionRepo) FindByID(_ context.Context, ownerID, id int64) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(ownerID, id)
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return cloneTx(r.rows[i]), nil
}

func (r *stubTransactionRepo) ListByOwner(_ context.Context, ownerID int64) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Transaction{}
	for _, tx := range r.rows {
		if tx.UserID == ownerID {
			out = append(out, cloneTx(tx))
		}
	}
	return out, nil
}

func (r *stubTransactionRepo) Update(_ context.Context, ownerID int64, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(ownerID, tx.ID)
	if !ok {
		return domain.ErrTransactionNotFound
	}
	r.rows[i] = cloneTx(tx)
	return nil
}

func (r *stubTransactionRepo) Delete(_ context.Context, ownerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.find(ownerID, id)
	if !ok {
		return domain.ErrTransactionNotFound
	}
	r.rows = append(r.rows[:i], r.rows[i+1:]...)
	return nil
}

// stubIdempotencyStore follows the Redis store: a claim writes a pending
// marker that Complete replaces with the transaction id.
type stubIdempotencyStore struct {
	mu       sync.Mutex
	keys     map[string]string
	claimErr error
	released int
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{keys: make(map[string]string)}
}

func idemKey(userID int64, key string) string {
	return fmt.Sprintf("%d:%s", userID, key)
}

func (s *stubIdempotencyStore) Claim(_ context.Context, userID int64, key string) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return false, 0, s.claimErr
	}
	val, ok := s.keys[idemKey(userID, key)]
	if !ok {
		s.keys[idemKey(userID, key)] = "pending"
		return true, 0, nil
	}
	if val == "pending" {
		return false, 0, domain.ErrIdempotencyInProgress
	}
	id, err := strconv.ParseInt(val, 10, 64)
	return false, id, err
}

func (s *stubIdempotencyStore) Complete(_ context.Context, userID int64, key string, txID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[idemKey(userID, key)] = strconv.FormatInt(txID, 10)
	return nil
}

func (s *stubIdempotencyStore) Release(_ context.Context, userID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, idemKey(userID, key))
	s.released++
	return nil
}
