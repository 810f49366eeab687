package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/fint/finance-tracker/internal/core/domain"
)

func TestUserRepository_SwapToken_Statements(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	t.Run("null previous token", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET token").
			WithArgs("next", int64(7), nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SwapToken(context.Background(), 7, "", "next"))
	})

	t.Run("lost race", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET token").
			WithArgs("next", int64(7), "prev").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SwapToken(context.Background(), 7, "prev", "next")
		assert.ErrorIs(t, err, domain.ErrTokenConflict)
	})

	t.Run("driver failure", func(t *testing.T) {
		mock.ExpectExec("UPDATE users SET token").
			WithArgs("next", int64(7), "prev").
			WillReturnError(errors.New("database is locked"))

		err := repo.SwapToken(context.Background(), 7, "prev", "next")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrTokenConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByToken_NullTokenColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, username, password_hash, token FROM users WHERE username").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "token"}).
			AddRow(int64(1), "alice", "hash", nil))

	u, err := NewUserRepository(db).FindByUsername(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "", u.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}
