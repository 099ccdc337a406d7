package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/devportal/user-registry/internal/api/metrics"
	"github.com/devportal/user-registry/internal/core/domain"
	"github.com/devportal/user-registry/internal/core/ports"
)

// UserHandler handles HTTP requests for user lifecycle operations.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Create handles POST /users.
func (h *UserHandler) Create(c echo.Context) error {
	_, actor, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.CreateUser(c.Request().Context(), ports.CreateUserInput{
		Username:      req.Username,
		Email:         req.Email,
		TaxCode:       req.TaxCode,
		GivenName:     req.GivenName,
		FamilyName:    req.FamilyName,
		Roles:         toRoles(req.Roles),
		Actor:         actor,
		CorrelationID: correlationID(c),
	})
	metrics.LifecycleOperationsTotal.WithLabelValues("create", outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(user, false))
}

// Get handles GET /users/:id. Non-admin callers receive the masked projection.
func (h *UserHandler) Get(c echo.Context) error {
	role, _, err := callerIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user, role != domain.CallerRoleAdmin))
}

// List handles GET /users.
func (h *UserHandler) List(c echo.Context) error {
	role, _, err := callerIdentity(c)
	if err != nil {
		return err
	}

	filter, err := parseListFilter(c)
	if err != nil {
		return err
	}

	users, total, err := h.service.ListUsers(c.Request().Context(), filter)
	if err != nil {
		return err
	}

	masked := role != domain.CallerRoleAdmin
	items := make([]userResponse, 0, len(users))
	for _, u := range users {
		items = append(items, toUserResponse(u, masked))
	}

	return c.JSON(http.StatusOK, listUsersResponse{
		Items: items,
		Page:  filter.Page,
		Size:  filter.Size,
		Total: total,
	})
}

// Update handles PATCH /users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	_, actor, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in := ports.UpdateUserInput{
		Username:      req.Username,
		Email:         req.Email,
		TaxCode:       req.TaxCode,
		GivenName:     req.GivenName,
		FamilyName:    req.FamilyName,
		Actor:         actor,
		CorrelationID: correlationID(c),
	}
	if req.Roles != nil {
		in.Roles = toRoles(req.Roles)
	}

	user, err := h.service.UpdateUser(c.Request().Context(), c.Param("id"), in)
	metrics.LifecycleOperationsTotal.WithLabelValues("update", outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user, false))
}

// Disable handles POST /users/:id/disable.
func (h *UserHandler) Disable(c echo.Context) error {
	_, actor, err := callerIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.service.DisableUser(c.Request().Context(), c.Param("id"), actor, correlationID(c))
	metrics.LifecycleOperationsTotal.WithLabelValues("disable", outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user, false))
}

// Enable handles POST /users/:id/enable.
func (h *UserHandler) Enable(c echo.Context) error {
	_, actor, err := callerIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.service.EnableUser(c.Request().Context(), c.Param("id"), actor, correlationID(c))
	metrics.LifecycleOperationsTotal.WithLabelValues("enable", outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toUserResponse(user, false))
}

// Delete handles DELETE /users/:id — a soft delete.
func (h *UserHandler) Delete(c echo.Context) error {
	_, actor, err := callerIdentity(c)
	if err != nil {
		return err
	}

	err = h.service.DeleteUser(c.Request().Context(), c.Param("id"), actor, correlationID(c))
	metrics.LifecycleOperationsTotal.WithLabelValues("delete", outcome(err)).Inc()
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Availability handles GET /users/availability — the advisory uniqueness
// pre-check exposed for fast-fail UX. A conflict answers 200 with the
// colliding field, not an error: availability is a question, not a write.
func (h *UserHandler) Availability(c echo.Context) error {
	if _, _, err := callerIdentity(c); err != nil {
		return err
	}

	username := c.QueryParam("username")
	taxCode := c.QueryParam("tax_code")
	if username == "" && taxCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username or tax_code is required")
	}

	err := h.service.CheckAvailable(c.Request().Context(), username, taxCode, c.QueryParam("exclude_id"))
	if err != nil {
		var dup *domain.DuplicateResourceError
		if errors.As(err, &dup) {
			return c.JSON(http.StatusOK, availabilityResponse{Available: false, Field: dup.Field})
		}
		return err
	}

	return c.JSON(http.StatusOK, availabilityResponse{Available: true})
}

func parseListFilter(c echo.Context) (ports.ListUsersFilter, error) {
	filter := ports.ListUsersFilter{
		Status: domain.UserStatus(c.QueryParam("status")),
		Search: c.QueryParam("q"),
		SortBy: c.QueryParam("sort"),
	}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, &domain.ValidationError{Field: "page", Reason: "must be an integer"}
		}
		filter.Page = page
	}
	if raw := c.QueryParam("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return filter, &domain.ValidationError{Field: "size", Reason: "must be an integer"}
		}
		filter.Size = size
	}

	switch c.QueryParam("order") {
	case "", "desc":
	case "asc":
		filter.SortAsc = true
	default:
		return filter, &domain.ValidationError{Field: "order", Reason: "must be asc or desc"}
	}

	return filter, nil
}

func toRoles(raw []string) []domain.ApplicationRole {
	roles := make([]domain.ApplicationRole, 0, len(raw))
	for _, r := range raw {
		roles = append(roles, domain.ApplicationRole(r))
	}
	return roles
}

// outcome classifies a lifecycle result for the operations counter.
func outcome(err error) string {
	var ve *domain.ValidationError
	var dup *domain.DuplicateResourceError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &ve):
		return "validation_error"
	case errors.As(err, &dup):
		return "duplicate"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrIllegalTransition):
		return "illegal_transition"
	default:
		return "error"
	}
}
