package user

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paralelogram/internal/user/models"
	"paralelogram/pkg/platform/sentinel"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

var userColumns = []string{
	"id", "user_id", "user_name", "email", "first_name", "last_name",
	"created_at", "created_by", "updated_at", "updated_by",
	"id", "role_id", "role_name",
}

func TestPostgresFindByUserName(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	roleID := uuid.New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("maps the joined row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM paralelogram_user u")).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
				int64(7), userID.String(), "alice", "alice@example.com", nil, "Liddell",
				now, "admin", now, nil,
				int64(1), roleID.String(), "paralelogram_admin",
			))

		u, err := store.FindByUserName(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, &models.User{
			ID:        7,
			UserID:    userID,
			UserName:  "alice",
			Email:     "alice@example.com",
			LastName:  "Liddell",
			Role:      &models.Role{ID: 1, RoleID: roleID, RoleName: "paralelogram_admin"},
			CreatedAt: now,
			CreatedBy: "admin",
			UpdatedAt: now,
		}, u)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user is not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM paralelogram_user u")).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := store.FindByUserName(ctx, "ghost")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM paralelogram_user u")).
			WillReturnError(errors.New("connection reset"))

		_, err := store.FindByUserName(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, sentinel.ErrNotFound)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestPostgresSave(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	newUser := func() *models.User {
		return &models.User{
			UserID:    uuid.New(),
			UserName:  "alice",
			Email:     "alice@example.com",
			FirstName: "Alice",
			Role:      &models.Role{ID: 2, RoleID: uuid.New(), RoleName: "paralelogram_visitor"},
			CreatedBy: "admin",
		}
	}

	t.Run("fills generated fields", func(t *testing.T) {
		store, mock := newMockStore(t)
		u := newUser()
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO paralelogram_user")).
			WithArgs(u.UserID, "alice", "alice@example.com", "Alice", nil, int64(2), "admin").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

		require.NoError(t, store.Save(ctx, u))
		assert.Equal(t, int64(11), u.ID)
		assert.Equal(t, now, u.CreatedAt)
		assert.Equal(t, "admin", u.UpdatedBy)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO paralelogram_user")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "paralelogram_user_user_name_key"})

		err := store.Save(ctx, newUser())
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("user without role is rejected", func(t *testing.T) {
		store, _ := newMockStore(t)
		u := newUser()
		u.Role = nil
		assert.ErrorIs(t, store.Save(ctx, u), sentinel.ErrInvalidState)
	})
}
