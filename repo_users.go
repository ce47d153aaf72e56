package users

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user repository. It layers domain operations on top of the
// generic bun-backed repository.
type Users interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	List(ctx context.Context, query UserQuery) ([]*User, int, error)
	Patch(ctx context.Context, id uuid.UUID, patch *UserPatch) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type usersRepo struct {
	base repository.Repository[*User]
	db   *bun.DB
}

var _ Users = (*usersRepo)(nil)

// UseHashid switches Register to derive deterministic user IDs from the
// email instead of random UUIDs.
var UseHashid = false

// NewUsersRepository builds the Users repository over the given bun DB.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &usersRepo{
		base: repo,
		db:   db,
	}
}

func (a *usersRepo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	return record, nil
}

func (a *usersRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

func (a *usersRepo) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *usersRepo) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	created, err := a.base.CreateTx(ctx, tx, user)
	if err != nil {
		if IsDuplicateConstraintError(err) {
			return nil, ErrDuplicatedEmail.Clone().
				WithMetadata(map[string]any{"email": user.Email})
		}
		return nil, err
	}

	return created, nil
}

func (a *usersRepo) List(ctx context.Context, query UserQuery) ([]*User, int, error) {
	query.ApplyDefaults()

	records := []*User{}
	q := a.db.NewSelect().Model(&records)

	if query.Email != "" {
		q = q.Where("?TableAlias.email = ?", query.Email)
	}
	if query.Name != "" {
		q = q.Where("?TableAlias.name LIKE ?", "%"+query.Name+"%")
	}
	if query.IsActive != nil {
		q = q.Where("?TableAlias.is_active = ?", *query.IsActive)
	}

	q = q.Order(fmt.Sprintf("%s %s", query.OrderBy, query.Ordering)).
		Limit(query.Limit()).
		Offset(query.Offset())

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}

	return records, total, nil
}

func (a *usersRepo) Patch(ctx context.Context, id uuid.UUID, patch *UserPatch) (*User, error) {
	if patch == nil || patch.IsZero() {
		return a.GetByID(ctx, id)
	}

	now := time.Now()
	q := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("updated_at = ?", now).
		Set("version = version + 1").
		Where("id = ?", id).
		Where("deleted_at IS NULL")

	patch.apply(q)

	res, err := q.Exec(ctx)
	if err != nil {
		if IsDuplicateConstraintError(err) {
			return nil, ErrDuplicatedEmail.Clone()
		}
		return nil, err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return a.GetByID(ctx, id)
}

// Delete soft deletes the user; rows are never removed from the table.
func (a *usersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		if UseHashid {
			if id, err := hashid.NewUUID(record.Email); err == nil {
				record.ID = id
			}
		}
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
	}

	if record.Version == 0 {
		record.Version = 1
	}
}
