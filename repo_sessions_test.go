package users_test

import (
	"context"
	"testing"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshSessions_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	owner := seedUser(t, repo, "owner@example.com", "secret123", true, false)

	t.Run("create assigns id and version", func(t *testing.T) {
		session, err := repo.RefreshSessions().Create(ctx, &users.RefreshSession{
			Token:      "token-1",
			UserID:     owner.ID,
			Expiration: time.Now().Add(time.Hour),
		})

		require.NoError(t, err)
		assert.NotEmpty(t, session.ID)
		assert.Equal(t, 1, session.Version)
		assert.False(t, session.LastUsed.IsZero())
	})

	t.Run("get by token", func(t *testing.T) {
		session, err := repo.RefreshSessions().GetByToken(ctx, "token-1")
		require.NoError(t, err)
		assert.Equal(t, owner.ID, session.UserID)
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		_, err := repo.RefreshSessions().GetByToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, users.ErrSessionNotFound)
	})
}

func TestRefreshSessions_Rotate(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	owner := seedUser(t, repo, "rotator@example.com", "secret123", true, false)

	t.Run("rotates the token string in place", func(t *testing.T) {
		created, err := repo.RefreshSessions().Create(ctx, &users.RefreshSession{
			Token:      "old-token",
			UserID:     owner.ID,
			Expiration: time.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		rotated, err := repo.RefreshSessions().Rotate(ctx, "old-token", "new-token", 2*time.Hour)
		require.NoError(t, err)

		assert.Equal(t, "new-token", rotated.Token)
		assert.Equal(t, created.ID, rotated.ID)
		assert.Equal(t, owner.ID, rotated.UserID)
		assert.Equal(t, created.Version+1, rotated.Version)
		assert.True(t, rotated.Expiration.After(time.Now().Add(time.Hour)))

		// the old string matches no row anymore
		_, err = repo.RefreshSessions().GetByToken(ctx, "old-token")
		assert.ErrorIs(t, err, users.ErrSessionNotFound)

		fetched, err := repo.RefreshSessions().GetByToken(ctx, "new-token")
		require.NoError(t, err)
		assert.Equal(t, created.ID, fetched.ID)
	})

	t.Run("replaying a rotated token fails", func(t *testing.T) {
		_, err := repo.RefreshSessions().Rotate(ctx, "old-token", "another-token", time.Hour)
		assert.ErrorIs(t, err, users.ErrSessionNotFound)
	})

	t.Run("unknown token fails", func(t *testing.T) {
		_, err := repo.RefreshSessions().Rotate(ctx, "missing-token", "whatever", time.Hour)
		assert.ErrorIs(t, err, users.ErrSessionNotFound)
	})

	t.Run("expired session refuses rotation without mutation", func(t *testing.T) {
		_, err := repo.RefreshSessions().Create(ctx, &users.RefreshSession{
			Token:      "stale-token",
			UserID:     owner.ID,
			Expiration: time.Now().Add(-time.Minute),
		})
		require.NoError(t, err)

		_, err = repo.RefreshSessions().Rotate(ctx, "stale-token", "fresh-token", time.Hour)
		assert.ErrorIs(t, err, users.ErrSessionExpired)

		// the stale row is still there, untouched
		session, err := repo.RefreshSessions().GetByToken(ctx, "stale-token")
		require.NoError(t, err)
		assert.Equal(t, "stale-token", session.Token)
	})
}

func TestRefreshSessions_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	owner := seedUser(t, repo, "deleter@example.com", "secret123", true, false)

	mkSession := func(token string, expiration time.Time) {
		t.Helper()
		_, err := repo.RefreshSessions().Create(ctx, &users.RefreshSession{
			Token:      token,
			UserID:     owner.ID,
			Expiration: expiration,
		})
		require.NoError(t, err)
	}

	t.Run("delete by token", func(t *testing.T) {
		mkSession("to-delete", time.Now().Add(time.Hour))

		require.NoError(t, repo.RefreshSessions().DeleteByToken(ctx, "to-delete"))

		err := repo.RefreshSessions().DeleteByToken(ctx, "to-delete")
		assert.ErrorIs(t, err, users.ErrSessionNotFound)
	})

	t.Run("delete by user id removes every session", func(t *testing.T) {
		mkSession("session-a", time.Now().Add(time.Hour))
		mkSession("session-b", time.Now().Add(time.Hour))

		require.NoError(t, repo.RefreshSessions().DeleteByUserID(ctx, owner.ID))

		_, err := repo.RefreshSessions().GetByToken(ctx, "session-a")
		assert.ErrorIs(t, err, users.ErrSessionNotFound)
		_, err = repo.RefreshSessions().GetByToken(ctx, "session-b")
		assert.ErrorIs(t, err, users.ErrSessionNotFound)
	})

	t.Run("delete expired sweeps only stale rows", func(t *testing.T) {
		mkSession("live-session", time.Now().Add(time.Hour))
		mkSession("dead-session", time.Now().Add(-time.Hour))

		swept, err := repo.RefreshSessions().DeleteExpired(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, swept)

		_, err = repo.RefreshSessions().GetByToken(ctx, "live-session")
		assert.NoError(t, err)
		_, err = repo.RefreshSessions().GetByToken(ctx, "dead-session")
		assert.ErrorIs(t, err, users.ErrSessionNotFound)
	})
}
