package users_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService(t *testing.T) {
	t.Run("creates token service", func(t *testing.T) {
		service := users.NewTokenService([]byte("test-signing-key"), "test-issuer", nil)
		assert.NotNil(t, service)
	})
}

func TestTokenService_Mint(t *testing.T) {
	service := users.NewTokenService([]byte("test-signing-key"), "test-issuer", nil)

	t.Run("mints access token with subject", func(t *testing.T) {
		signed, expiry, err := service.Mint(users.TokenTypeAccess, "user-123", 15*time.Minute)

		require.NoError(t, err)
		assert.NotEmpty(t, signed)
		assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiry, 2*time.Second)

		claims, err := service.Validate(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.Subject())
		assert.Equal(t, users.TokenTypeAccess, claims.TokenType())
		assert.True(t, claims.IsAccess())
		assert.False(t, claims.IsRefresh())
		assert.NotEmpty(t, claims.TokenID())
		assert.Equal(t, expiry.Unix(), claims.Expires().Unix())
	})

	t.Run("mints refresh token without subject", func(t *testing.T) {
		signed, _, err := service.Mint(users.TokenTypeRefresh, "", 24*time.Hour)

		require.NoError(t, err)

		claims, err := service.Validate(signed)
		require.NoError(t, err)
		assert.Empty(t, claims.Subject())
		assert.True(t, claims.IsRefresh())
		assert.NotEmpty(t, claims.TokenID())
	})

	t.Run("every mint gets a fresh token id", func(t *testing.T) {
		first, _, err := service.Mint(users.TokenTypeRefresh, "", time.Hour)
		require.NoError(t, err)
		second, _, err := service.Mint(users.TokenTypeRefresh, "", time.Hour)
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("rejects non positive ttl", func(t *testing.T) {
		_, _, err := service.Mint(users.TokenTypeAccess, "user-123", 0)
		assert.Error(t, err)
	})
}

func TestTokenService_Validate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := users.NewTokenService(signingKey, "test-issuer", nil)

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Validate("not-a-token")
		assert.Error(t, err)
		assert.True(t, users.IsMalformedError(err))
	})

	t.Run("rejects token signed with a different key", func(t *testing.T) {
		other := users.NewTokenService([]byte("other-key"), "test-issuer", nil)
		signed, _, err := other.Mint(users.TokenTypeAccess, "user-123", time.Hour)
		require.NoError(t, err)

		_, err = service.Validate(signed)
		assert.Error(t, err)
		assert.True(t, users.IsMalformedError(err))
	})

	t.Run("rejects wrong issuer", func(t *testing.T) {
		other := users.NewTokenService(signingKey, "someone-else", nil)
		signed, _, err := other.Mint(users.TokenTypeAccess, "user-123", time.Hour)
		require.NoError(t, err)

		_, err = service.Validate(signed)
		assert.Error(t, err)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		now := time.Now()
		signed, err := service.SignClaims(&users.TokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "user-123",
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
				ID:        "expired-token-id",
			},
			Type: users.TokenTypeAccess,
		})
		require.NoError(t, err)

		_, err = service.Validate(signed)
		assert.Error(t, err)
		assert.True(t, users.IsTokenExpiredError(err))
	})
}

func TestTokenService_Decode(t *testing.T) {
	service := users.NewTokenService([]byte("test-signing-key"), "test-issuer", nil)

	t.Run("decodes without verifying the signature", func(t *testing.T) {
		other := users.NewTokenService([]byte("other-key"), "test-issuer", nil)
		signed, _, err := other.Mint(users.TokenTypeAccess, "user-123", time.Hour)
		require.NoError(t, err)

		claims, err := service.Decode(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.Subject())
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Decode("not-a-token")
		assert.Error(t, err)
	})
}
