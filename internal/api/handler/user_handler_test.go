package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/devportal/user-registry/internal/core/domain"
	"github.com/devportal/user-registry/internal/core/ports"
)

// stubUserService records calls and returns canned results.
type stubUserService struct {
	user       *domain.User
	users      []*domain.User
	total      int64
	err        error
	lastCreate ports.CreateUserInput
	lastUpdate ports.UpdateUserInput
	lastFilter ports.ListUsersFilter
	lastID     string
	lastActor  string
}

func (s *stubUserService) CreateUser(_ context.Context, in ports.CreateUserInput) (*domain.User, error) {
	s.lastCreate = in
	return s.user, s.err
}

func (s *stubUserService) GetUser(_ context.Context, id string) (*domain.User, error) {
	s.lastID = id
	return s.user, s.err
}

func (s *stubUserService) ListUsers(_ context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	s.lastFilter = filter
	return s.users, s.total, s.err
}

func (s *stubUserService) UpdateUser(_ context.Context, id string, in ports.UpdateUserInput) (*domain.User, error) {
	s.lastID = id
	s.lastUpdate = in
	return s.user, s.err
}

func (s *stubUserService) DisableUser(_ context.Context, id, actor, _ string) (*domain.User, error) {
	s.lastID = id
	s.lastActor = actor
	return s.user, s.err
}

func (s *stubUserService) EnableUser(_ context.Context, id, actor, _ string) (*domain.User, error) {
	s.lastID = id
	s.lastActor = actor
	return s.user, s.err
}

func (s *stubUserService) DeleteUser(_ context.Context, id, actor, _ string) error {
	s.lastID = id
	s.lastActor = actor
	return s.err
}

func (s *stubUserService) CheckAvailable(_ context.Context, _, _, _ string) error {
	return s.err
}

func mario() *domain.User {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:         "u-1",
		Username:   "mario.rossi",
		Email:      "mario.rossi@example.com",
		TaxCode:    "RSSMRA85M01H501Q",
		GivenName:  "Mario",
		FamilyName: "Rossi",
		Status:     domain.StatusActive,
		Roles:      []domain.ApplicationRole{domain.RoleAppDeveloper},
		CreatedAt:  now,
		CreatedBy:  "root",
		UpdatedAt:  now,
		UpdatedBy:  "root",
	}
}

// newContext builds an echo context pre-populated with auth claims, the
// request validator, and a response-side request id.
func newContext(t *testing.T, method, target, body, role string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", role)
	c.Set("username", "operator")
	c.Response().Header().Set(echo.HeaderXRequestID, "req-123")
	return c, rec
}

func TestCreate_Success(t *testing.T) {
	svc := &stubUserService{user: mario()}
	h := NewUserHandler(svc)

	body := `{"username":"mario.rossi","email":"mario.rossi@example.com","tax_code":"RSSMRA85M01H501Q","given_name":"Mario","family_name":"Rossi","roles":["DEVELOPER"]}`
	c, rec := newContext(t, http.MethodPost, "/users", body, domain.CallerRoleAdmin)

	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.lastCreate.Actor != "operator" {
		t.Fatalf("actor = %q, want operator", svc.lastCreate.Actor)
	}
	if svc.lastCreate.CorrelationID != "req-123" {
		t.Fatalf("correlation id = %q", svc.lastCreate.CorrelationID)
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TaxCode != "RSSMRA85M01H501Q" {
		t.Fatalf("admin response must not be masked, got tax code %q", resp.TaxCode)
	}
}

func TestCreate_RejectsUnknownRole(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	body := `{"username":"mario.rossi","email":"mario.rossi@example.com","tax_code":"RSSMRA85M01H501Q","given_name":"Mario","family_name":"Rossi","roles":["SUPERUSER"]}`
	c, _ := newContext(t, http.MethodPost, "/users", body, domain.CallerRoleAdmin)

	err := h.Create(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %v", err)
	}
}

func TestCreate_PropagatesDuplicate(t *testing.T) {
	svc := &stubUserService{err: &domain.DuplicateResourceError{Field: "username"}}
	h := NewUserHandler(svc)

	body := `{"username":"mario.rossi","email":"mario.rossi@example.com","tax_code":"RSSMRA85M01H501Q","given_name":"Mario","family_name":"Rossi","roles":["DEVELOPER"]}`
	c, _ := newContext(t, http.MethodPost, "/users", body, domain.CallerRoleAdmin)

	err := h.Create(c)
	var dup *domain.DuplicateResourceError
	if !errors.As(err, &dup) || dup.Field != "username" {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestGet_MasksForViewer(t *testing.T) {
	svc := &stubUserService{user: mario()}
	h := NewUserHandler(svc)

	c, rec := newContext(t, http.MethodGet, "/users/u-1", "", domain.CallerRoleViewer)
	c.SetParamNames("id")
	c.SetParamValues("u-1")

	if err := h.Get(c); err != nil {
		t.Fatalf("get: %v", err)
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "m***@example.com" {
		t.Fatalf("email not masked: %q", resp.Email)
	}
	if resp.TaxCode != "RSS***********1Q" {
		t.Fatalf("tax code not masked: %q", resp.TaxCode)
	}
	if resp.Username != "mario.rossi" {
		t.Fatalf("username must stay visible: %q", resp.Username)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := &stubUserService{err: domain.ErrUserNotFound}
	h := NewUserHandler(svc)

	c, _ := newContext(t, http.MethodGet, "/users/missing", "", domain.CallerRoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := h.Get(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestGet_MissingClaims(t *testing.T) {
	h := NewUserHandler(&stubUserService{user: mario()})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/users/u-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Get(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestList_ParsesQueryParams(t *testing.T) {
	svc := &stubUserService{users: []*domain.User{mario()}, total: 1}
	h := NewUserHandler(svc)

	c, rec := newContext(t, http.MethodGet, "/users?status=DISABLED&q=mario&page=2&size=10&sort=username&order=asc", "", domain.CallerRoleAdmin)

	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	f := svc.lastFilter
	if f.Status != domain.StatusDisabled || f.Search != "mario" || f.Page != 2 || f.Size != 10 {
		t.Fatalf("unexpected filter: %+v", f)
	}
	if f.SortBy != "username" || !f.SortAsc {
		t.Fatalf("unexpected sort: %+v", f)
	}
}

func TestList_RejectsBadPage(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	c, _ := newContext(t, http.MethodGet, "/users?page=two", "", domain.CallerRoleAdmin)

	err := h.List(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "page" {
		t.Fatalf("expected page validation error, got %v", err)
	}
}

func TestList_RejectsBadOrder(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	c, _ := newContext(t, http.MethodGet, "/users?order=sideways", "", domain.CallerRoleAdmin)

	err := h.List(c)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "order" {
		t.Fatalf("expected order validation error, got %v", err)
	}
}

func TestUpdate_PartialPatch(t *testing.T) {
	svc := &stubUserService{user: mario()}
	h := NewUserHandler(svc)

	c, rec := newContext(t, http.MethodPatch, "/users/u-1", `{"email":"new@example.com"}`, domain.CallerRoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("u-1")

	if err := h.Update(c); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.lastUpdate.Email == nil || *svc.lastUpdate.Email != "new@example.com" {
		t.Fatalf("email patch not forwarded: %+v", svc.lastUpdate)
	}
	if svc.lastUpdate.Username != nil || svc.lastUpdate.Roles != nil {
		t.Fatalf("absent fields must stay nil: %+v", svc.lastUpdate)
	}
}

func TestDisable_PropagatesIllegalTransition(t *testing.T) {
	svc := &stubUserService{err: domain.ErrIllegalTransition}
	h := NewUserHandler(svc)

	c, _ := newContext(t, http.MethodPost, "/users/u-1/disable", "", domain.CallerRoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("u-1")

	if err := h.Disable(c); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("expected illegal transition, got %v", err)
	}
}

func TestDelete_NoContent(t *testing.T) {
	svc := &stubUserService{}
	h := NewUserHandler(svc)

	c, rec := newContext(t, http.MethodDelete, "/users/u-1", "", domain.CallerRoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("u-1")

	if err := h.Delete(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if svc.lastID != "u-1" || svc.lastActor != "operator" {
		t.Fatalf("delete call not forwarded: id=%q actor=%q", svc.lastID, svc.lastActor)
	}
}

func TestAvailability_Conflict(t *testing.T) {
	svc := &stubUserService{err: &domain.DuplicateResourceError{Field: "tax_code"}}
	h := NewUserHandler(svc)

	c, rec := newContext(t, http.MethodGet, "/users/availability?tax_code=RSSMRA85M01H501Q", "", domain.CallerRoleAdmin)

	if err := h.Availability(c); err != nil {
		t.Fatalf("availability: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Available || resp.Field != "tax_code" {
		t.Fatalf("unexpected availability response: %+v", resp)
	}
}

func TestAvailability_Free(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	c, rec := newContext(t, http.MethodGet, "/users/availability?username=new.user", "", domain.CallerRoleAdmin)

	if err := h.Availability(c); err != nil {
		t.Fatalf("availability: %v", err)
	}

	var resp availabilityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Available || resp.Field != "" {
		t.Fatalf("unexpected availability response: %+v", resp)
	}
}

func TestAvailability_RequiresIdentifier(t *testing.T) {
	h := NewUserHandler(&stubUserService{})

	c, _ := newContext(t, http.MethodGet, "/users/availability", "", domain.CallerRoleAdmin)

	err := h.Availability(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"mario.rossi@example.com": "m***@example.com",
		"a@b.it":                  "a***@b.it",
		"not-an-email":            "***",
	}
	for in, want := range cases {
		if got := maskEmail(in); got != want {
			t.Fatalf("maskEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
