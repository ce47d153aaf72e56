package users

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthClaims is the read side of a decoded token, kept as an interface so
// transports do not depend on the concrete JWT implementation.
type AuthClaims interface {
	Subject() string
	TokenID() string
	TokenType() string
	Expires() time.Time
	IssuedAt() time.Time
}

// TokenClaims is the concrete claims payload signed into every token:
// exp and jti always, sub for access tokens, token_type for both.
type TokenClaims struct {
	jwt.RegisteredClaims
	Type string `json:"token_type,omitempty"`
}

var _ AuthClaims = (*TokenClaims)(nil)

// Subject returns the subject claim (the user id for access tokens).
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// TokenID returns the jti claim.
func (c *TokenClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// TokenType returns the token_type claim.
func (c *TokenClaims) TokenType() string {
	return c.Type
}

// IsAccess reports whether this is an access token.
func (c *TokenClaims) IsAccess() bool {
	return c.Type == TokenTypeAccess
}

// IsRefresh reports whether this is a refresh token.
func (c *TokenClaims) IsRefresh() bool {
	return c.Type == TokenTypeRefresh
}

// Expires returns the expiration time, zero when the claim is absent.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time, zero when the claim is absent.
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
