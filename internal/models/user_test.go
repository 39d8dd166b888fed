package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("generates an api key and its hash", func(t *testing.T) {
		user, err := NewUser("org-1", "Pat@Example.COM", "Pat", RoleInspector)
		require.NoError(t, err)

		assert.Equal(t, "pat@example.com", user.Email)
		assert.NotEmpty(t, user.APIKey)
		assert.Equal(t, HashAPIKey(user.APIKey), user.APIKeyHash)
		assert.True(t, user.IsActive)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		_, err := NewUser("org-1", "  ", "Pat", RoleInspector)
		assert.ErrorIs(t, err, ErrEmptyEmail)
	})
}

func TestUserPassword(t *testing.T) {
	t.Run("set then verify round-trips", func(t *testing.T) {
		user, err := NewUser("org-1", "pat@example.com", "Pat", RoleAdmin)
		require.NoError(t, err)

		require.NoError(t, user.SetPassword("correct horse battery"))
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotContains(t, user.PasswordHash, "correct horse", "hash must not embed the password")

		assert.True(t, user.VerifyPassword("correct horse battery"))
		assert.False(t, user.VerifyPassword("wrong password"))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		user, err := NewUser("org-1", "pat@example.com", "Pat", RoleInspector)
		require.NoError(t, err)

		assert.ErrorIs(t, user.SetPassword("short"), ErrPasswordTooShort)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("no password set never verifies", func(t *testing.T) {
		user, err := NewUser("org-1", "pat@example.com", "Pat", RoleInspector)
		require.NoError(t, err)

		assert.False(t, user.VerifyPassword(""))
		assert.False(t, user.VerifyPassword("anything"))
	})
}
