package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) (*UserServiceImpl, *StubUserRepository) {
	repo := NewStubUserRepository()
	return NewUserService(repo), repo
}

func TestUserServiceImpl_FindOrCreate(t *testing.T) {
	t.Run("should create a user on first sign-in", func(t *testing.T) {
		// given
		service, _ := setupService(t)

		// when
		created, err := service.FindOrCreate(context.Background(), User{
			Uid:      "google:123",
			Username: "ada@example.com",
			Email:    "ada@example.com",
		})

		// then
		require.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.Equal(t, "ada@example.com", created.DisplayName)
		assert.Equal(t, "UTC", created.Settings.Timezone)
	})

	t.Run("should return the existing user on later sign-ins", func(t *testing.T) {
		// given
		service, _ := setupService(t)
		first, err := service.FindOrCreate(context.Background(), User{Uid: "google:123", DisplayName: "Ada"})
		require.NoError(t, err)

		// when
		second, err := service.FindOrCreate(context.Background(), User{Uid: "google:123", DisplayName: "Changed"})

		// then
		require.NoError(t, err)
		assert.Equal(t, first.Id, second.Id)
		assert.Equal(t, "Ada", second.DisplayName)
	})

	t.Run("should reject a user without uid", func(t *testing.T) {
		service, _ := setupService(t)

		_, err := service.FindOrCreate(context.Background(), User{DisplayName: "Nobody"})

		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})
}

func TestUserServiceImpl_UpdateUser(t *testing.T) {
	t.Run("should update the current user", func(t *testing.T) {
		// given
		service, _ := setupService(t)
		created, err := service.FindOrCreate(context.Background(), User{Uid: "u1", DisplayName: "Ada"})
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		// when
		updated, err := service.UpdateUser(ctx, User{
			DisplayName: "Ada L.",
			Settings:    Settings{Timezone: "Europe/Warsaw"},
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", updated.DisplayName)
		assert.Equal(t, "Europe/Warsaw", updated.Settings.Timezone)
		current, err := service.GetCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", current.DisplayName)
	})

	t.Run("should reject an unknown timezone", func(t *testing.T) {
		service, _ := setupService(t)
		created, err := service.FindOrCreate(context.Background(), User{Uid: "u1", DisplayName: "Ada"})
		require.NoError(t, err)
		ctx := WithUser(context.Background(), created)

		_, err = service.UpdateUser(ctx, User{DisplayName: "Ada", Settings: Settings{Timezone: "Mars/Olympus"}})

		assert.ErrorIs(t, err, ErrUserDataInvalid)
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		service, _ := setupService(t)

		_, err := service.UpdateUser(context.Background(), User{DisplayName: "Ada"})

		assert.ErrorIs(t, err, ErrNoUser)
	})
}

func TestUser_Location(t *testing.T) {
	assert.Equal(t, time.UTC, User{}.Location())
	assert.Equal(t, time.UTC, User{Settings: Settings{Timezone: "Not/AZone"}}.Location())
	assert.Equal(t, "Europe/Warsaw", User{Settings: Settings{Timezone: "Europe/Warsaw"}}.Location().String())
}

func TestCurrentUser(t *testing.T) {
	_, err := CurrentId(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	ctx := WithUser(context.Background(), User{Id: 7, Uid: "u7"})
	id, err := CurrentId(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, id)
}
