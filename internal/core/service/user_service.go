package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/devportal/user-registry/internal/core/domain"
	"github.com/devportal/user-registry/internal/core/ports"
)

const defaultPageSize = 20

// UserCache abstracts the read-side snapshot cache (Redis). Cache failures
// are never fatal: a failed Get is a miss, a failed Set/Invalidate is logged.
type UserCache interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Set(ctx context.Context, u *domain.User) error
	Invalidate(ctx context.Context, id string) error
}

// UserService implements the lifecycle engine. All status and role-set
// mutations funnel through here; correctness under concurrent writers relies
// on the repository's atomic constraint enforcement, not in-process locking.
type UserService struct {
	repo   ports.UserRepository
	cache  UserCache
	events ports.EventSink
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, cache UserCache, events ports.EventSink, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, cache: cache, events: events, logger: logger}
}

// CreateUser validates the command, runs the advisory uniqueness check,
// persists the user in ACTIVE status, and enqueues a "user.created" event.
// The event handoff happens strictly after the persistence commit and its
// outcome never affects the returned result.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	roles, err := validateRoles(in.Roles)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateTaxCode(in.TaxCode); err != nil {
		return nil, err
	}
	if err := s.CheckAvailable(ctx, in.Username, in.TaxCode, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:         uuid.NewString(),
		Username:   in.Username,
		Email:      in.Email,
		TaxCode:    strings.ToUpper(strings.TrimSpace(in.TaxCode)),
		GivenName:  in.GivenName,
		FamilyName: in.FamilyName,
		Status:     domain.StatusActive,
		Roles:      roles,
		CreatedAt:  now,
		CreatedBy:  in.Actor,
		UpdatedAt:  now,
		UpdatedBy:  in.Actor,
	}

	// The advisory check above is not authoritative under races: Create
	// translates the storage constraint violation into the same
	// DuplicateResourceError shape, so either path looks identical to callers.
	if err := s.repo.Create(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("username", in.Username).Msg("failed to create user")
		return nil, err
	}

	s.cacheSet(ctx, user)
	s.emit(domain.EventUserCreated, user, in.CorrelationID)

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user created")
	return user, nil
}

// GetUser returns a non-deleted user by id, read through the cache.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("cache read failed, falling back to store")
	} else if cached != nil {
		return cached, nil
	}

	user, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, user)
	return user, nil
}

// ListUsers validates pagination bounds and returns a page of users plus the
// total match count. An out-of-range page yields an empty page, not an error.
func (s *UserService) ListUsers(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	if filter.Page < 0 {
		return nil, 0, &domain.ValidationError{Field: "page", Reason: "must not be negative"}
	}
	if filter.Size == 0 {
		filter.Size = defaultPageSize
	}
	if filter.Size < ports.MinPageSize || filter.Size > ports.MaxPageSize {
		return nil, 0, &domain.ValidationError{Field: "size", Reason: "must be between 1 and 100"}
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, &domain.ValidationError{Field: "status", Reason: "unknown status"}
	}
	switch filter.SortBy {
	case "":
		filter.SortBy = "created_at"
	case "created_at", "username":
	default:
		return nil, 0, &domain.ValidationError{Field: "sort", Reason: "unsupported sort field"}
	}

	return s.repo.List(ctx, filter)
}

// UpdateUser applies a partial patch to a non-deleted user. Changing the
// username or tax code re-runs the uniqueness guard excluding the user's own
// id. A non-nil role slice replaces the whole role set.
func (s *UserService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}

	identityChanged := false
	if in.Username != nil && *in.Username != user.Username {
		user.Username = *in.Username
		identityChanged = true
	}
	if in.TaxCode != nil {
		if err := domain.ValidateTaxCode(*in.TaxCode); err != nil {
			return nil, err
		}
		code := strings.ToUpper(strings.TrimSpace(*in.TaxCode))
		if code != user.TaxCode {
			user.TaxCode = code
			identityChanged = true
		}
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.GivenName != nil {
		user.GivenName = *in.GivenName
	}
	if in.FamilyName != nil {
		user.FamilyName = *in.FamilyName
	}
	if in.Roles != nil {
		roles, err := validateRoles(in.Roles)
		if err != nil {
			return nil, err
		}
		user.Roles = roles
	}

	if identityChanged {
		if err := s.CheckAvailable(ctx, user.Username, user.TaxCode, user.ID); err != nil {
			return nil, err
		}
	}

	user.UpdatedAt = time.Now().UTC()
	user.UpdatedBy = in.Actor

	if err := s.repo.Update(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to update user")
		return nil, err
	}

	s.cacheInvalidate(ctx, id)
	s.emit(domain.EventUserUpdated, user, in.CorrelationID)

	s.logger.Info().Str("user_id", id).Msg("user updated")
	return user, nil
}

// DisableUser transitions ACTIVE -> DISABLED. Disabling an already disabled
// user succeeds without side effects; a deleted user appears not found.
func (s *UserService) DisableUser(ctx context.Context, id, actor, correlationID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if user.Status == domain.StatusDisabled {
		return user, nil
	}

	if err := s.transition(ctx, user, domain.StatusDisabled, actor); err != nil {
		return nil, err
	}
	s.emit(domain.EventUserDisabled, user, correlationID)

	s.logger.Info().Str("user_id", id).Msg("user disabled")
	return user, nil
}

// EnableUser transitions DISABLED -> ACTIVE. Enabling an already active
// user succeeds without side effects; a deleted user appears not found.
func (s *UserService) EnableUser(ctx context.Context, id, actor, correlationID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if user.Status == domain.StatusActive {
		return user, nil
	}

	if err := s.transition(ctx, user, domain.StatusActive, actor); err != nil {
		return nil, err
	}
	s.emit(domain.EventUserEnabled, user, correlationID)

	s.logger.Info().Str("user_id", id).Msg("user enabled")
	return user, nil
}

// DeleteUser soft-deletes a user: status becomes the terminal DELETED while
// every other field is retained. Deleting an already deleted user reports
// not found, never an illegal transition.
func (s *UserService) DeleteUser(ctx context.Context, id, actor, correlationID string) error {
	user, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return err
	}

	if err := s.transition(ctx, user, domain.StatusDeleted, actor); err != nil {
		return err
	}
	s.emit(domain.EventUserDeleted, user, correlationID)

	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// CheckAvailable runs the advisory uniqueness pre-check against non-deleted
// users. It improves UX with a fast, precise rejection but is not the final
// arbiter under concurrency; the storage constraint is.
func (s *UserService) CheckAvailable(ctx context.Context, username, taxCode, excludeID string) error {
	field, err := s.repo.FindConflict(ctx, username, strings.ToUpper(strings.TrimSpace(taxCode)), excludeID)
	if err != nil {
		return err
	}
	if field != "" {
		return &domain.DuplicateResourceError{Field: field}
	}
	return nil
}

// transition applies the state machine guard and persists the new status.
func (s *UserService) transition(ctx context.Context, user *domain.User, next domain.UserStatus, actor string) error {
	if !user.Status.CanTransitionTo(next) {
		return domain.ErrIllegalTransition
	}

	user.Status = next
	user.UpdatedAt = time.Now().UTC()
	user.UpdatedBy = actor

	if err := s.repo.SetStatus(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Str("status", string(next)).Msg("failed to set status")
		return err
	}
	s.cacheInvalidate(ctx, user.ID)
	return nil
}

// emit hands a lifecycle event to the sink. The sink is fire-and-forget by
// contract: nothing here can fail the lifecycle operation that produced it.
func (s *UserService) emit(kind domain.EventKind, user *domain.User, correlationID string) {
	s.events.Enqueue(domain.LifecycleEvent{
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Kind:          kind,
		OccurredAt:    time.Now().UTC(),
		User:          *user,
	})
}

func (s *UserService) cacheSet(ctx context.Context, user *domain.User) {
	if err := s.cache.Set(ctx, user); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to cache user snapshot")
	}
}

func (s *UserService) cacheInvalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("user_id", id).Msg("failed to invalidate cached snapshot")
	}
}

func validateRoles(roles []domain.ApplicationRole) ([]domain.ApplicationRole, error) {
	for _, r := range roles {
		if !r.IsValid() {
			return nil, &domain.ValidationError{Field: "roles", Reason: "unknown role " + string(r)}
		}
	}
	return domain.NormalizeRoles(roles), nil
}
