package users

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// List ordering options.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const defaultOrderColumn = "updated_at"

var orderableColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"email":      true,
	"name":       true,
}

// UserQuery carries pagination and filter options for user listings.
type UserQuery struct {
	Page     int    `query:"page" json:"page"`
	PageSize int    `query:"page_size" json:"page_size"`
	OrderBy  string `query:"order_by" json:"order_by"`
	Ordering string `query:"ordering" json:"ordering"`
	Email    string `query:"email" json:"email,omitempty"`
	Name     string `query:"name" json:"name,omitempty"`
	IsActive *bool  `query:"is_active" json:"is_active,omitempty"`
}

// ApplyDefaults normalizes the query in place: page 1, page size 10,
// ordered by updated_at descending. Unknown order columns fall back to
// the default so callers cannot inject arbitrary SQL.
func (q *UserQuery) ApplyDefaults() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	if !orderableColumns[q.OrderBy] {
		q.OrderBy = defaultOrderColumn
	}
	if q.Ordering != OrderAsc {
		q.Ordering = OrderDesc
	}
}

// Limit returns the page size.
func (q UserQuery) Limit() int {
	return q.PageSize
}

// Offset returns the row offset for the requested page.
func (q UserQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// SearchOptions echoes the pagination options plus the total row count in
// list responses.
type SearchOptions struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	OrderBy    string `json:"order_by"`
	Ordering   string `json:"ordering"`
	TotalCount int    `json:"total_count"`
}

// FindResult is the paged list envelope.
type FindResult[T any] struct {
	Founds        []T           `json:"founds"`
	SearchOptions SearchOptions `json:"search_options"`
}

// NewFindResult pairs records with the options that produced them.
func NewFindResult[T any](founds []T, query UserQuery, total int) FindResult[T] {
	if founds == nil {
		founds = []T{}
	}
	return FindResult[T]{
		Founds: founds,
		SearchOptions: SearchOptions{
			Page:       query.Page,
			PageSize:   query.PageSize,
			OrderBy:    query.OrderBy,
			Ordering:   query.Ordering,
			TotalCount: total,
		},
	}
}

// UserPatch is a partial update. Nil fields are left untouched; the
// repository bumps updated_at and the version counter on every patch.
type UserPatch struct {
	Email        *string    `json:"email,omitempty"`
	PasswordHash *string    `json:"-"`
	Name         *string    `json:"name,omitempty"`
	Phone        *string    `json:"phone_number,omitempty"`
	IsActive     *bool      `json:"is_active,omitempty"`
	IsSuperuser  *bool      `json:"is_superuser,omitempty"`
	UpdatedBy    *uuid.UUID `json:"updated_by,omitempty"`
}

// IsZero reports whether the patch would change nothing.
func (p *UserPatch) IsZero() bool {
	if p == nil {
		return true
	}
	return p.Email == nil &&
		p.PasswordHash == nil &&
		p.Name == nil &&
		p.Phone == nil &&
		p.IsActive == nil &&
		p.IsSuperuser == nil &&
		p.UpdatedBy == nil
}

func (p *UserPatch) apply(q *bun.UpdateQuery) {
	if p.Email != nil {
		q.Set("email = ?", *p.Email)
	}
	if p.PasswordHash != nil {
		q.Set("password_hash = ?", *p.PasswordHash)
	}
	if p.Name != nil {
		q.Set("name = ?", *p.Name)
	}
	if p.Phone != nil {
		q.Set("phone_number = ?", *p.Phone)
	}
	if p.IsActive != nil {
		q.Set("is_active = ?", *p.IsActive)
	}
	if p.IsSuperuser != nil {
		q.Set("is_superuser = ?", *p.IsSuperuser)
	}
	if p.UpdatedBy != nil {
		q.Set("updated_by = ?", *p.UpdatedBy)
	}
}
