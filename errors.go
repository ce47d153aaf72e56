package users

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrInvalidCredentials is returned for unknown emails and password
// mismatches alike, so callers cannot probe which emails exist.
var ErrInvalidCredentials = errors.New("Incorrect email or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_CREDENTIALS")

// ErrAccountInactive rejects sign-in for deactivated accounts.
var ErrAccountInactive = errors.New("Account is not active", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("ACCOUNT_INACTIVE")

// ErrSessionNotFound means no refresh session row matched the token
// string. A rotated-out or signed-out token fails this way.
var ErrSessionNotFound = errors.New("Token not found", errors.CategoryNotFound).
	WithTextCode("SESSION_NOT_FOUND")

// ErrSessionExpired means the stored session's expiration has passed.
var ErrSessionExpired = errors.New("Token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("SESSION_EXPIRED")

// ErrTokenExpired is the codec-level expiry failure.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed covers bad signatures and undecodable payloads.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("TOKEN_MALFORMED")

// ErrMissingCredentials is raised when no bearer token is present.
var ErrMissingCredentials = errors.New("Invalid authorization code", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("MISSING_CREDENTIALS")

// ErrInvalidScheme is raised when the Authorization scheme is not Bearer.
var ErrInvalidScheme = errors.New("Invalid authentication scheme", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_SCHEME")

// ErrInvalidToken is the gate-level verification failure.
var ErrInvalidToken = errors.New("Invalid token or expired token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("INVALID_TOKEN")

// ErrUserNotFound means a token subject did not resolve to a live user.
var ErrUserNotFound = errors.New("User not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("USER_NOT_FOUND")

// ErrUserRecordNotFound is the management API's lookup failure.
var ErrUserRecordNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithTextCode("USER_RECORD_NOT_FOUND")

// ErrInactiveUser blocks authenticated but deactivated users.
var ErrInactiveUser = errors.New("Inactive user", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("INACTIVE_USER")

// ErrNotSuperUser blocks non-superusers from administrative routes.
var ErrNotSuperUser = errors.New("It's not a super user", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("NOT_SUPER_USER")

// ErrPermissionDenied is the administrative routes' policy failure.
var ErrPermissionDenied = errors.New("Permission denied", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode("PERMISSION_DENIED")

// ErrDuplicatedEmail surfaces the users table unique constraint.
var ErrDuplicatedEmail = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode("DUPLICATED_EMAIL")

// ErrMismatchedHashAndPassword is the hasher's verify failure.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode("PASSWORD_MISMATCH")

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_STRING")

// IsTokenExpiredError reports whether err is the codec's expiry failure.
func IsTokenExpiredError(err error) bool {
	var rich *errors.Error
	return errors.As(err, &rich) && rich.TextCode == ErrTokenExpired.TextCode
}

// IsMalformedError reports whether err is a codec decode failure.
func IsMalformedError(err error) bool {
	var rich *errors.Error
	return errors.As(err, &rich) && rich.TextCode == ErrTokenMalformed.TextCode
}

// IsDuplicateConstraintError detects unique constraint violations across
// the dialects we support (sqlite and postgres wording). The repository
// layer wraps driver errors behind its own message, so the whole unwrap
// chain is inspected, not just the outermost error.
func IsDuplicateConstraintError(err error) bool {
	for err != nil {
		msg := err.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "duplicate key value violates unique constraint") {
			return true
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
