package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	t.Run("auth failure keeps status and message", func(t *testing.T) {
		err := NewAuth(http.StatusUnauthorized, "user not authenticated")

		assert.True(t, Is(err, KindAuth))
		assert.False(t, Is(err, KindUser))
		assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
		assert.Equal(t, "user not authenticated", MessageOf(err))
		assert.Equal(t, "user not authenticated", err.Error())
	})

	t.Run("wrapped cause is reachable but hidden from message", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := WrapUser(cause, http.StatusServiceUnavailable, "error encountered while creating user")

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "error encountered while creating user", MessageOf(err))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("domain error survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("add user: %w", NewUser(http.StatusBadRequest, "invalid role ADMIN"))

		de, ok := As(err)
		require.True(t, ok)
		assert.Equal(t, KindUser, de.Kind)
		assert.Equal(t, http.StatusBadRequest, StatusOf(err))
	})

	t.Run("plain errors map to internal", func(t *testing.T) {
		err := errors.New("boom")

		assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
		assert.Equal(t, "internal error", MessageOf(err))
		assert.False(t, Is(err, KindAuth))
	})
}
