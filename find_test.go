package users_test

import (
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
)

func TestUserQuery_ApplyDefaults(t *testing.T) {
	t.Run("fills an empty query", func(t *testing.T) {
		query := users.UserQuery{}
		query.ApplyDefaults()

		assert.Equal(t, 1, query.Page)
		assert.Equal(t, 10, query.PageSize)
		assert.Equal(t, "updated_at", query.OrderBy)
		assert.Equal(t, users.OrderDesc, query.Ordering)
	})

	t.Run("keeps valid values", func(t *testing.T) {
		query := users.UserQuery{
			Page:     3,
			PageSize: 25,
			OrderBy:  "email",
			Ordering: users.OrderAsc,
		}
		query.ApplyDefaults()

		assert.Equal(t, 3, query.Page)
		assert.Equal(t, 25, query.PageSize)
		assert.Equal(t, "email", query.OrderBy)
		assert.Equal(t, users.OrderAsc, query.Ordering)
	})

	t.Run("unknown order columns fall back", func(t *testing.T) {
		query := users.UserQuery{OrderBy: "password_hash; DROP TABLE users"}
		query.ApplyDefaults()

		assert.Equal(t, "updated_at", query.OrderBy)
	})

	t.Run("unknown ordering falls back to desc", func(t *testing.T) {
		query := users.UserQuery{Ordering: "sideways"}
		query.ApplyDefaults()

		assert.Equal(t, users.OrderDesc, query.Ordering)
	})
}

func TestUserQuery_Pagination(t *testing.T) {
	query := users.UserQuery{Page: 3, PageSize: 25}

	assert.Equal(t, 25, query.Limit())
	assert.Equal(t, 50, query.Offset())
}

func TestNewFindResult(t *testing.T) {
	query := users.UserQuery{}
	query.ApplyDefaults()

	t.Run("echoes the query options", func(t *testing.T) {
		result := users.NewFindResult([]*users.User{{Email: "a@example.com"}}, query, 42)

		assert.Len(t, result.Founds, 1)
		assert.Equal(t, 1, result.SearchOptions.Page)
		assert.Equal(t, 10, result.SearchOptions.PageSize)
		assert.Equal(t, 42, result.SearchOptions.TotalCount)
	})

	t.Run("nil rows render as an empty list", func(t *testing.T) {
		result := users.NewFindResult[*users.User](nil, query, 0)
		assert.NotNil(t, result.Founds)
		assert.Empty(t, result.Founds)
	})
}

func TestUserPatch_IsZero(t *testing.T) {
	assert.True(t, (*users.UserPatch)(nil).IsZero())
	assert.True(t, (&users.UserPatch{}).IsZero())

	name := "New Name"
	assert.False(t, (&users.UserPatch{Name: &name}).IsZero())
}
