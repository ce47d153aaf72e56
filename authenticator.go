package users

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Authenticator holds the session lifecycle operations the transport
// layer drives.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*AuthResponse, error)
	SignUp(ctx context.Context, payload SignUpPayload) (*User, error)
	SignOut(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Me(ctx context.Context, userID string) (*User, error)
}

// AuthResponse carries a freshly minted token pair. Expiration is the
// access token's expiry instant.
type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiration   time.Time `json:"expiration"`
}

// SignUpPayload is the data needed to create an account. The password is
// cleartext here and hashed before it ever reaches the store.
type SignUpPayload struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// Auther implements Authenticator over the repositories and token codec.
type Auther struct {
	repo       RepositoryManager
	tokens     TokenService
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     Logger
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther wired with a TokenService built
// from the provided configuration.
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		repo:       repo,
		tokens:     tokenService,
		accessTTL:  opts.GetAccessTokenTTL(),
		refreshTTL: opts.GetRefreshTokenTTL(),
		logger:     defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the codec, mostly for tests.
func (s *Auther) WithTokenService(tokens TokenService) *Auther {
	if tokens != nil {
		s.tokens = tokens
	}
	return s
}

// TokenService returns the codec used by this authenticator.
func (s *Auther) TokenService() TokenService {
	return s.tokens
}

// SignIn verifies credentials and opens a session: a persisted refresh
// token and a short lived access token bound to the user id. Unknown
// emails and bad passwords fail identically.
func (s *Auther) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			s.logger.Info("SignIn unknown email", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up user during sign in")
	}

	if !user.IsActive {
		s.logger.Info("SignIn blocked inactive account", "user_id", user.ID.String())
		return nil, ErrAccountInactive
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Info("SignIn password mismatch", "user_id", user.ID.String())
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to verify password")
	}

	refreshToken, refreshExpiry, err := s.tokens.Mint(TokenTypeRefresh, "", s.refreshTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := s.repo.RefreshSessions().Create(ctx, &RefreshSession{
		Token:      refreshToken,
		UserID:     user.ID,
		Expiration: refreshExpiry,
		LastUsed:   now,
	}); err != nil {
		return nil, err
	}

	accessToken, accessExpiry, err := s.tokens.Mint(TokenTypeAccess, user.ID.String(), s.accessTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("SignIn success", "user_id", user.ID.String())

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiration:   accessExpiry,
	}, nil
}

// SignUp creates a new active, non superuser account with a hashed
// password. Duplicate emails surface as a conflict error.
func (s *Auther) SignUp(ctx context.Context, payload SignUpPayload) (*User, error) {
	hash, err := HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        payload.Email,
		PasswordHash: hash,
		Name:         payload.Name,
		Phone:        payload.Phone,
		IsActive:     true,
		IsSuperuser:  false,
	}

	created, err := s.repo.Users().Register(ctx, user)
	if err != nil {
		s.logger.Error("SignUp register error", "error", err)
		return nil, err
	}

	s.logger.Info("SignUp success", "user_id", created.ID.String())

	return created, nil
}

// SignOut revokes the session matching the refresh token. A miss is
// surfaced, not swallowed.
func (s *Auther) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.repo.RefreshSessions().DeleteByToken(ctx, refreshToken); err != nil {
		s.logger.Info("SignOut error", "error", err)
		return err
	}

	s.logger.Info("SignOut success")
	return nil
}

// SignOutEverywhere revokes every session belonging to the user.
func (s *Auther) SignOutEverywhere(ctx context.Context, userID uuid.UUID) error {
	return s.repo.RefreshSessions().DeleteByUserID(ctx, userID)
}

// Refresh rotates the session row matching the presented token and mints
// a fresh access token bound to the row's owner. After rotation the old
// string matches no row, so a replayed token fails with "Token not found".
func (s *Auther) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	newToken, _, err := s.tokens.Mint(TokenTypeRefresh, "", s.refreshTTL)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.RefreshSessions().Rotate(ctx, refreshToken, newToken, s.refreshTTL)
	if err != nil {
		s.logger.Info("Refresh rotation failed", "error", err)
		return nil, err
	}

	accessToken, accessExpiry, err := s.tokens.Mint(TokenTypeAccess, session.UserID.String(), s.accessTTL)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Refresh success", "user_id", session.UserID.String())

	return &AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: session.Token,
		Expiration:   accessExpiry,
	}, nil
}

// Me resolves a user id to its record.
func (s *Auther) Me(ctx context.Context, userID string) (*User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	user, err := s.repo.Users().GetByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}
