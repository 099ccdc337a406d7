package ports

import (
	"context"

	"github.com/devportal/user-registry/internal/core/domain"
)

// CreateUserInput is the already-authorized command to create a user.
// Actor identifies the authenticated caller for audit fields.
type CreateUserInput struct {
	Username      string
	Email         string
	TaxCode       string
	GivenName     string
	FamilyName    string
	Roles         []domain.ApplicationRole
	Actor         string
	CorrelationID string
}

// UpdateUserInput is a partial patch: nil pointers leave the existing value
// untouched. Roles, when non-nil, replaces the whole role set.
type UpdateUserInput struct {
	Username      *string
	Email         *string
	TaxCode       *string
	GivenName     *string
	FamilyName    *string
	Roles         []domain.ApplicationRole
	Actor         string
	CorrelationID string
}

// UserService is the lifecycle engine: the only component allowed to mutate
// a user's status or role set.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	ListUsers(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*domain.User, error)
	// DisableUser transitions ACTIVE -> DISABLED; disabling an already
	// disabled user is a successful no-op.
	DisableUser(ctx context.Context, id, actor, correlationID string) (*domain.User, error)
	// EnableUser transitions DISABLED -> ACTIVE; enabling an already active
	// user is a successful no-op.
	EnableUser(ctx context.Context, id, actor, correlationID string) (*domain.User, error)
	// DeleteUser soft-deletes: status becomes the terminal DELETED, all
	// other fields are retained.
	DeleteUser(ctx context.Context, id, actor, correlationID string) error
	// CheckAvailable runs the advisory uniqueness pre-check. It returns
	// *domain.DuplicateResourceError on conflict, nil when both identifiers
	// are free among non-deleted users.
	CheckAvailable(ctx context.Context, username, taxCode, excludeID string) error
}
