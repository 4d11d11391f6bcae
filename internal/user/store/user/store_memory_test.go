package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paralelogram/internal/user/models"
	"paralelogram/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	role := &models.Role{ID: 1, RoleID: uuid.New(), RoleName: "paralelogram_admin"}
	store := NewInMemory()

	_, err := store.FindByUserName(ctx, "alice")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	alice := &models.User{UserID: uuid.New(), UserName: "alice", Email: "alice@example.com", Role: role}
	require.NoError(t, store.Save(ctx, alice))
	assert.Equal(t, int64(1), alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	found, err := store.FindByUserName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, found)

	t.Run("duplicates conflict", func(t *testing.T) {
		sameName := &models.User{UserID: uuid.New(), UserName: "alice", Role: role}
		assert.ErrorIs(t, store.Save(ctx, sameName), sentinel.ErrConflict)

		sameRemote := &models.User{UserID: alice.UserID, UserName: "bob", Role: role}
		assert.ErrorIs(t, store.Save(ctx, sameRemote), sentinel.ErrConflict)

		sameEmail := &models.User{UserID: uuid.New(), UserName: "carol", Email: "alice@example.com", Role: role}
		assert.ErrorIs(t, store.Save(ctx, sameEmail), sentinel.ErrConflict)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		found.FirstName = "changed"
		again, err := store.FindByUserName(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, again.FirstName)
	})
}
