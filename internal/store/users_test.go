package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoreau/go-image-pipeline/models"
)

func TestUsersCreateAndFind(t *testing.T) {
	users := NewUsers(newTestDB(t))
	ctx := context.Background()

	user := &models.User{
		Username:     "ana",
		Email:        "  Ana@Example.COM ",
		PasswordHash: "$2a$10$fakehash",
	}
	require.NoError(t, users.Create(ctx, user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ana@example.com", user.Email, "email must be stored lowercase")

	byEmail, err := users.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", byID.Email)
}

func TestUsersDuplicateEmail(t *testing.T) {
	users := NewUsers(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.User{Email: "dup@example.com", PasswordHash: "x"}))

	err := users.Create(ctx, &models.User{Email: "DUP@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUsersFindMissing(t *testing.T) {
	users := NewUsers(newTestDB(t))
	ctx := context.Background()

	_, err := users.FindByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = users.FindByID(ctx, "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}
