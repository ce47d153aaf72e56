package users_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// testConfig satisfies users.Config with sane testing defaults.
type testConfig struct {
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func newTestConfig() testConfig {
	return testConfig{
		signingKey: "test-signing-key",
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
	}
}

func (c testConfig) GetSigningKey() string    { return c.signingKey }
func (c testConfig) GetSigningMethod() string { return "HS256" }
func (c testConfig) GetIssuer() string        { return "go-users-test" }
func (c testConfig) GetContextKey() string    { return "user" }
func (c testConfig) GetAuthScheme() string    { return "Bearer" }
func (c testConfig) GetTokenLookup() string   { return "header:Authorization" }

func (c testConfig) GetAccessTokenTTL() time.Duration  { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }

// setupTestDB opens a per-test in-memory sqlite database with the schema
// created from the bun models.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	_, err = db.NewCreateTable().
		Model((*users.User)(nil)).
		IfNotExists().
		Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewCreateTable().
		Model((*users.RefreshSession)(nil)).
		IfNotExists().
		Exec(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// seedUser registers a user with the given flags and password already hashed.
func seedUser(t *testing.T, repo users.RepositoryManager, email, password string, active, super bool) *users.User {
	t.Helper()

	hash, err := users.HashPassword(password)
	require.NoError(t, err)

	user, err := repo.Users().Register(context.Background(), &users.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		IsActive:     active,
		IsSuperuser:  super,
	})
	require.NoError(t, err)

	return user
}
