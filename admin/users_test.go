package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tessera/database"
	"tessera/models"
)

func TestGrantAdmin(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Email: "editor@example.gr", PasswordHash: "x", Roles: "user"}).Error)

	granted, err := GrantAdmin(db, "Editor@example.gr")
	require.NoError(t, err)
	assert.True(t, granted)

	var user models.User
	require.NoError(t, db.Where("email = ?", "editor@example.gr").First(&user).Error)
	assert.Equal(t, []string{"user", "admin"}, user.RoleList())

	granted, err = GrantAdmin(db, "editor@example.gr")
	require.NoError(t, err)
	assert.False(t, granted)

	_, err = GrantAdmin(db, "ghost@example.gr")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	hash, err := HashPassword("old-password")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{Email: "editor@example.gr", PasswordHash: hash}).Error)

	require.NoError(t, ChangePassword(db, "editor@example.gr", "new-password"))

	var user models.User
	require.NoError(t, db.Where("email = ?", "editor@example.gr").First(&user).Error)
	assert.True(t, CheckPasswordHash("new-password", user.PasswordHash))
	assert.False(t, CheckPasswordHash("old-password", user.PasswordHash))

	assert.ErrorIs(t, ChangePassword(db, "ghost@example.gr", "x"), ErrUserNotFound)
	assert.Error(t, ChangePassword(db, "editor@example.gr", ""))
}
