package users_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersRepository_Register(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	t.Run("assigns id and version", func(t *testing.T) {
		user, err := repo.Users().Register(ctx, &users.User{
			Email:        "alice@example.com",
			PasswordHash: "hash",
			Name:         "Alice",
			IsActive:     true,
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, 1, user.Version)
	})

	t.Run("stores boolean flags as given", func(t *testing.T) {
		created, err := repo.Users().Register(ctx, &users.User{
			Email:        "parked@example.com",
			PasswordHash: "hash",
			IsActive:     false,
			IsSuperuser:  false,
		})
		require.NoError(t, err)

		// An account registered inactive must stay inactive.
		stored, err := repo.Users().GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive)
		assert.False(t, stored.IsSuperuser)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := repo.Users().Register(ctx, &users.User{
			Email:        "alice@example.com",
			PasswordHash: "hash",
		})

		require.Error(t, err)

		var rich *errors.Error
		require.True(t, errors.As(err, &rich))
		assert.Equal(t, errors.CategoryConflict, rich.Category)
	})
}

func TestUsersRepository_Lookups(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	seeded := seedUser(t, repo, "bob@example.com", "secret123", true, false)

	t.Run("get by id", func(t *testing.T) {
		user, err := repo.Users().GetByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", user.Email)
	})

	t.Run("get by email", func(t *testing.T) {
		user, err := repo.Users().GetByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, user.ID)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := repo.Users().GetByID(ctx, uuid.New())
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		_, err := repo.Users().GetByEmail(ctx, "nobody@example.com")
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	seedUser(t, repo, "carol@example.com", "secret123", true, false)
	seedUser(t, repo, "dave@example.com", "secret123", false, false)
	seedUser(t, repo, "erin@example.com", "secret123", true, true)

	t.Run("returns all with total", func(t *testing.T) {
		query := users.UserQuery{}
		query.ApplyDefaults()

		founds, total, err := repo.Users().List(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, founds, 3)
	})

	t.Run("filters by active flag", func(t *testing.T) {
		active := false
		query := users.UserQuery{IsActive: &active}
		query.ApplyDefaults()

		founds, total, err := repo.Users().List(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, founds, 1)
		assert.Equal(t, "dave@example.com", founds[0].Email)
	})

	t.Run("filters by exact email", func(t *testing.T) {
		query := users.UserQuery{Email: "erin@example.com"}
		query.ApplyDefaults()

		founds, total, err := repo.Users().List(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, founds, 1)
		assert.True(t, founds[0].IsSuperuser)
	})

	t.Run("paginates", func(t *testing.T) {
		query := users.UserQuery{Page: 2, PageSize: 2, OrderBy: "email", Ordering: users.OrderAsc}
		query.ApplyDefaults()

		founds, total, err := repo.Users().List(ctx, query)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, founds, 1)
		assert.Equal(t, "erin@example.com", founds[0].Email)
	})

	t.Run("orders ascending by email", func(t *testing.T) {
		query := users.UserQuery{OrderBy: "email", Ordering: users.OrderAsc, PageSize: 10}
		query.ApplyDefaults()

		founds, _, err := repo.Users().List(ctx, query)
		require.NoError(t, err)
		require.Len(t, founds, 3)
		assert.Equal(t, "carol@example.com", founds[0].Email)
		assert.Equal(t, "erin@example.com", founds[2].Email)
	})
}

func TestUsersRepository_Patch(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	seeded := seedUser(t, repo, "frank@example.com", "secret123", true, false)

	t.Run("updates only provided fields", func(t *testing.T) {
		name := "Franklin"
		inactive := false

		updated, err := repo.Users().Patch(ctx, seeded.ID, &users.UserPatch{
			Name:     &name,
			IsActive: &inactive,
		})

		require.NoError(t, err)
		assert.Equal(t, "Franklin", updated.Name)
		assert.False(t, updated.IsActive)
		assert.Equal(t, "frank@example.com", updated.Email)
		assert.Equal(t, seeded.Version+1, updated.Version)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		name := "Nobody"
		_, err := repo.Users().Patch(ctx, uuid.New(), &users.UserPatch{Name: &name})
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}

func TestUsersRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepositoryManager(db)
	ctx := context.Background()

	seeded := seedUser(t, repo, "grace@example.com", "secret123", true, false)

	t.Run("soft deletes", func(t *testing.T) {
		require.NoError(t, repo.Users().Delete(ctx, seeded.ID))

		_, err := repo.Users().GetByID(ctx, seeded.ID)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})

	t.Run("second delete is not found", func(t *testing.T) {
		err := repo.Users().Delete(ctx, seeded.ID)
		require.Error(t, err)
		assert.True(t, repository.IsRecordNotFound(err))
	})
}
