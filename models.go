package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity record. Rows are never hard deleted; DeletedAt
// doubles as the soft delete flag via bun's soft_delete support.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	IsActive      bool       `bun:"is_active,notnull" json:"is_active"`
	IsSuperuser   bool       `bun:"is_superuser,notnull" json:"is_superuser"`
	Version       int        `bun:"version,notnull,default:1" json:"version,omitempty"`
	CreatedBy     *uuid.UUID `bun:"created_by,nullzero" json:"created_by,omitempty"`
	UpdatedBy     *uuid.UUID `bun:"updated_by,nullzero" json:"updated_by,omitempty"`
	DeletedBy     *uuid.UUID `bun:"deleted_by,nullzero" json:"deleted_by,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// RefreshSession is the persisted refresh token record. The signed token
// string is the lookup key; rotation rewrites Token in place rather than
// inserting a new row, so at most one live row exists per token string.
type RefreshSession struct {
	bun.BaseModel `bun:"table:refresh_sessions,alias:rs"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"token,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User      `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Expiration    time.Time  `bun:"expiration,notnull" json:"expiration,omitempty"`
	LastUsed      time.Time  `bun:"last_used,notnull" json:"last_used,omitempty"`
	Version       int        `bun:"version,notnull,default:1" json:"version,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Expired reports whether the session's expiration instant has passed.
func (s *RefreshSession) Expired(now time.Time) bool {
	return !s.Expiration.After(now)
}

// Touch marks the session as used now and extends its lifetime.
func (s *RefreshSession) Touch(now time.Time, ttl time.Duration) {
	s.LastUsed = now
	s.Expiration = now.Add(ttl)
}
