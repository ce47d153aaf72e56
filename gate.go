package users

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-users/middleware/jwtware"
)

// UserContextKey is the Locals key the gate stores the resolved user under.
const UserContextKey = "current_user"

type userPolicy int

const (
	policyAnyUser userPolicy = iota
	policyActiveUser
	policySuperUser
)

// Gate builds route middleware that validates bearer tokens, resolves the
// owning user, and enforces an account policy before the handler runs.
type Gate struct {
	auth   *Auther
	tokens TokenValidator
	config Config
	logger Logger
}

func NewGate(auth *Auther, config Config) *Gate {
	return &Gate{
		auth:   auth,
		tokens: ServiceTokenValidator(auth.TokenService()),
		config: config,
		logger: defLogger{},
	}
}

func (g *Gate) WithLogger(logger Logger) *Gate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithTokenValidator swaps the token verification chain, for example a
// MultiTokenValidator that also accepts tokens from an external issuer.
func (g *Gate) WithTokenValidator(tokens TokenValidator) *Gate {
	if tokens != nil {
		g.tokens = tokens
	}
	return g
}

// CurrentUser requires a valid access token whose subject resolves to a
// stored user. No account state is checked.
func (g *Gate) CurrentUser() fiber.Handler {
	return g.middleware(policyAnyUser)
}

// CurrentActiveUser additionally rejects inactive accounts.
func (g *Gate) CurrentActiveUser() fiber.Handler {
	return g.middleware(policyActiveUser)
}

// CurrentSuperUser rejects inactive accounts and accounts without the
// superuser flag.
func (g *Gate) CurrentSuperUser() fiber.Handler {
	return g.middleware(policySuperUser)
}

// OptionalUser resolves the user when a valid access token is present and
// lets the request through anonymously otherwise.
func (g *Gate) OptionalUser() fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: claimsValidator{g},
		TokenLookup:    g.config.GetTokenLookup(),
		AuthScheme:     g.config.GetAuthScheme(),
		ContextKey:     g.config.GetContextKey(),
		ErrorHandler: func(c *fiber.Ctx, _ error) error {
			return c.Next()
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			claims, ok := c.Locals(g.config.GetContextKey()).(jwtware.AuthClaims)
			if !ok || claims.TokenType() != TokenTypeAccess {
				return c.Next()
			}
			user, err := g.auth.Me(c.Context(), claims.Subject())
			if err == nil {
				c.Locals(UserContextKey, user)
			}
			return c.Next()
		},
	})
}

func (g *Gate) middleware(policy userPolicy) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: claimsValidator{g},
		TokenLookup:    g.config.GetTokenLookup(),
		AuthScheme:     g.config.GetAuthScheme(),
		ContextKey:     g.config.GetContextKey(),
		ErrorHandler:   g.handleTokenError,
		SuccessHandler: func(c *fiber.Ctx) error {
			claims, ok := c.Locals(g.config.GetContextKey()).(jwtware.AuthClaims)
			if !ok {
				return ErrInvalidToken
			}

			user, err := g.resolveUser(c, claims, policy)
			if err != nil {
				return err
			}

			c.Locals(UserContextKey, user)
			return c.Next()
		},
	})
}

func (g *Gate) resolveUser(c *fiber.Ctx, claims jwtware.AuthClaims, policy userPolicy) (*User, error) {
	// Refresh tokens never pass the gate, only access tokens carry a subject.
	if claims.TokenType() != TokenTypeAccess {
		g.logger.Info("gate rejected non access token", "token_type", claims.TokenType())
		return nil, ErrInvalidToken
	}

	user, err := g.auth.Me(c.Context(), claims.Subject())
	if err != nil {
		return nil, err
	}

	switch policy {
	case policyActiveUser:
		if !user.IsActive {
			return nil, ErrInactiveUser
		}
	case policySuperUser:
		if !user.IsActive {
			return nil, ErrInactiveUser
		}
		if !user.IsSuperuser {
			return nil, ErrNotSuperUser
		}
	}

	return user, nil
}

// handleTokenError distinguishes a missing credential from a wrong scheme
// and maps everything else to an invalid token.
func (g *Gate) handleTokenError(c *fiber.Ctx, err error) error {
	if err.Error() == jwtware.ErrJWTMissingOrMalformed.Error() {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return ErrMissingCredentials
		}

		scheme := g.config.GetAuthScheme()
		if !strings.EqualFold(firstField(header), scheme) {
			return ErrInvalidScheme
		}

		return ErrMissingCredentials
	}

	return ErrInvalidToken
}

func firstField(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}

// UserFromCtx returns the user resolved by the gate for this request.
func UserFromCtx(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(UserContextKey).(*User)
	return user, ok
}

// claimsValidator adapts the gate's TokenValidator to the middleware's
// validator interface. It reads the chain through the gate per request so
// WithTokenValidator also affects routes that are already mounted.
type claimsValidator struct {
	gate *Gate
}

func (v claimsValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.gate.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
