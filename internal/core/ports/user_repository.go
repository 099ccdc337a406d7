package ports

import (
	"context"

	"github.com/devportal/user-registry/internal/core/domain"
)

// Pagination bounds enforced by the service layer.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// ListUsersFilter carries all query parameters for listing users.
// Page is zero-based. Unless Status explicitly asks for DELETED rows,
// deleted users are excluded from every read.
type ListUsersFilter struct {
	Status  domain.UserStatus // optional: filter by lifecycle status
	Search  string            // optional: case-insensitive substring over username, email, given/family name
	Page    int               // zero-based page index
	Size    int               // page size, clamped to [MinPageSize, MaxPageSize] by the service
	SortBy  string            // "created_at" (default) or "username"
	SortAsc bool              // default false: creation time descending
}

// UserRepository defines persistence operations for user records.
//
// Create and Update are expected to translate the storage layer's
// partial-unique-constraint violation into *domain.DuplicateResourceError,
// so racing writers observe the same error shape the advisory check yields.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	// GetByID retrieves a user. DELETED rows are only visible when
	// includeDeleted is true.
	GetByID(ctx context.Context, id string, includeDeleted bool) (*domain.User, error)
	// List returns a page of users matching filter and the total match count.
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	Update(ctx context.Context, u *domain.User) error
	// SetStatus persists a status transition together with the audit actor.
	SetStatus(ctx context.Context, u *domain.User) error
	// FindConflict reports which field ("username" or "tax_code") collides
	// with a non-DELETED user other than excludeID. Empty means available.
	FindConflict(ctx context.Context, username, taxCode, excludeID string) (string, error)
}
