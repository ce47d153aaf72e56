package users

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshSessions persists refresh token records. The token string is the
// lookup key for every operation; rotation is a single read-modify-write
// under the store's transaction isolation, so concurrent refreshes with
// the same stale token race and at most one wins.
type RefreshSessions interface {
	Create(ctx context.Context, session *RefreshSession) (*RefreshSession, error)
	CreateTx(ctx context.Context, tx bun.IDB, session *RefreshSession) (*RefreshSession, error)
	GetByToken(ctx context.Context, token string) (*RefreshSession, error)
	Rotate(ctx context.Context, oldToken, newToken string, ttl time.Duration) (*RefreshSession, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type refreshSessions struct {
	db *bun.DB
}

var _ RefreshSessions = (*refreshSessions)(nil)

// NewRefreshSessionsRepository builds the session store over the given bun DB.
func NewRefreshSessionsRepository(db *bun.DB) RefreshSessions {
	return &refreshSessions{db: db}
}

func (r *refreshSessions) Create(ctx context.Context, session *RefreshSession) (*RefreshSession, error) {
	return r.CreateTx(ctx, r.db, session)
}

func (r *refreshSessions) CreateTx(ctx context.Context, tx bun.IDB, session *RefreshSession) (*RefreshSession, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Version == 0 {
		session.Version = 1
	}
	if session.LastUsed.IsZero() {
		session.LastUsed = time.Now()
	}

	if _, err := tx.NewInsert().Model(session).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh session")
	}

	return session, nil
}

func (r *refreshSessions) GetByToken(ctx context.Context, token string) (*RefreshSession, error) {
	return r.getByTokenTx(ctx, r.db, token)
}

func (r *refreshSessions) getByTokenTx(ctx context.Context, tx bun.IDB, token string) (*RefreshSession, error) {
	record := &RefreshSession{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load refresh session")
	}

	return record, nil
}

// Rotate replaces the stored token string in place. The old token must
// match a live, unexpired row; after commit the old string matches no row
// at all, which is what makes replayed tokens fail lookup.
func (r *refreshSessions) Rotate(ctx context.Context, oldToken, newToken string, ttl time.Duration) (*RefreshSession, error) {
	var rotated *RefreshSession

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := r.getByTokenTx(ctx, tx, oldToken)
		if err != nil {
			return err
		}

		now := time.Now()
		if current.Expired(now) {
			return ErrSessionExpired
		}

		current.Token = newToken
		current.Touch(now, ttl)
		current.Version++

		res, err := tx.NewUpdate().
			Model((*RefreshSession)(nil)).
			Set("token = ?", current.Token).
			Set("last_used = ?", current.LastUsed).
			Set("expiration = ?", current.Expiration).
			Set("updated_at = ?", now).
			Set("version = ?", current.Version).
			Where("token = ?", oldToken).
			Where("deleted_at IS NULL").
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to rotate refresh session")
		}

		// A concurrent rotation may have consumed the row between the
		// read and the write; that request owns the session now.
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return ErrSessionNotFound
		}

		rotated = current
		return nil
	})

	if err != nil {
		return nil, err
	}

	return rotated, nil
}

func (r *refreshSessions) DeleteByToken(ctx context.Context, token string) error {
	res, err := r.db.NewDelete().
		Model((*RefreshSession)(nil)).
		ForceDelete().
		Where("token = ?", token).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete refresh session")
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *refreshSessions) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*RefreshSession)(nil)).
		ForceDelete().
		Where("user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user sessions")
	}

	return nil
}

// DeleteExpired sweeps rows whose expiration has passed. Intended for a
// periodic housekeeping job, not the request path.
func (r *refreshSessions) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*RefreshSession)(nil)).
		ForceDelete().
		Where("expiration < ?", time.Now()).
		Exec(ctx)

	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to sweep expired sessions")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to count swept sessions")
	}

	return rows, nil
}
