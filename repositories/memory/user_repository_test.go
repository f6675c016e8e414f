package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/oba/server/models"
	"github.com/oba/server/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate local email", func(t *testing.T) {
		repo := NewUserRepository(zap.NewNop())
		require.NoError(t, repo.Create(ctx, models.NewLocalUser("a@x.com", "d1", "a")))

		err := repo.Create(ctx, models.NewLocalUser("a@x.com", "d2", "b"))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("duplicate provider external id", func(t *testing.T) {
		repo := NewUserRepository(zap.NewNop())
		require.NoError(t, repo.Create(ctx, models.NewSocialUser(models.ProviderKakao, "42", "k@x.com", "k", "")))

		err := repo.Create(ctx, models.NewSocialUser(models.ProviderKakao, "42", "other@x.com", "k", ""))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("same external id under another provider is allowed", func(t *testing.T) {
		repo := NewUserRepository(zap.NewNop())
		require.NoError(t, repo.Create(ctx, models.NewSocialUser(models.ProviderKakao, "42", "k@x.com", "k", "")))
		require.NoError(t, repo.Create(ctx, models.NewSocialUser(models.ProviderNaver, "42", "n@x.com", "n", "")))
		assert.Equal(t, 2, repo.Count())
	})
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(zap.NewNop())
	user := models.NewLocalUser("a@x.com", "digest", "alice")
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	*got.PasswordHash = "tampered"
	got.Nickname = "mallory"

	again, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "digest", *again.PasswordHash)
	assert.Equal(t, "alice", again.Nickname)
}

func TestUserRepository_RefreshTokenSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(zap.NewNop())
	user := models.NewLocalUser("a@x.com", "digest", "alice")
	require.NoError(t, repo.Create(ctx, user))

	v1 := "v1"
	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, &v1))

	owner, err := repo.GetByRefreshToken(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, owner.ID)

	rotated, err := repo.RotateRefreshToken(ctx, "v1", "v2")
	require.NoError(t, err)
	assert.Equal(t, "v2", *rotated.RefreshToken)

	_, err = repo.RotateRefreshToken(ctx, "v1", "v3")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, nil))
	_, err = repo.GetByRefreshToken(ctx, "v2")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestUserRepository_ConcurrentRotate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(zap.NewNop())
	user := models.NewLocalUser("a@x.com", "digest", "alice")
	require.NoError(t, repo.Create(ctx, user))

	current := "shared"
	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, &current))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.RotateRefreshToken(ctx, "shared", string(rune('a'+i))); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(zap.NewNop())
	user := models.NewLocalUser("a@x.com", "digest", "alice")
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), repositories.ErrNotFound)

	exists, err := repo.ExistsByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
