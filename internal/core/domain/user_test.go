package domain

import (
	"reflect"
	"testing"
)

func TestUserStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    UserStatus
		to      UserStatus
		allowed bool
	}{
		{StatusActive, StatusDisabled, true},
		{StatusActive, StatusDeleted, true},
		{StatusDisabled, StatusActive, true}, // re-enable permitted
		{StatusDisabled, StatusDeleted, true},

		{StatusActive, StatusActive, false},
		{StatusDisabled, StatusDisabled, false},
		{StatusDeleted, StatusActive, false}, // DELETED is terminal
		{StatusDeleted, StatusDisabled, false},
		{StatusDeleted, StatusDeleted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestUserStatus_IsValid(t *testing.T) {
	for _, s := range []UserStatus{StatusActive, StatusDisabled, StatusDeleted} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if UserStatus("SUSPENDED").IsValid() {
		t.Error("unknown status should not be valid")
	}
}

func TestNormalizeRoles_CollapsesDuplicates(t *testing.T) {
	got := NormalizeRoles([]ApplicationRole{
		RoleAppReporter, RoleAppDeveloper, RoleAppReporter, RoleAppDeveloper,
	})
	want := []ApplicationRole{RoleAppDeveloper, RoleAppReporter}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalizeRoles_OrderIndependent(t *testing.T) {
	a := NormalizeRoles([]ApplicationRole{RoleAppGuest, RoleAppAdmin, RoleAppMaintainer})
	b := NormalizeRoles([]ApplicationRole{RoleAppMaintainer, RoleAppGuest, RoleAppAdmin})
	if !reflect.DeepEqual(a, b) {
		t.Errorf("normalized sets differ: %v vs %v", a, b)
	}
}

func TestApplicationRole_IsValid(t *testing.T) {
	for _, r := range []ApplicationRole{RoleAppAdmin, RoleAppMaintainer, RoleAppDeveloper, RoleAppReporter, RoleAppGuest} {
		if !r.IsValid() {
			t.Errorf("%s should be valid", r)
		}
	}
	if ApplicationRole("OWNER").IsValid() {
		t.Error("OWNER is not part of the closed role set")
	}
}

func TestUser_HasRole(t *testing.T) {
	u := &User{Roles: []ApplicationRole{RoleAppDeveloper, RoleAppReporter}}
	if !u.HasRole(RoleAppDeveloper) {
		t.Error("expected user to have DEVELOPER")
	}
	if u.HasRole(RoleAppAdmin) {
		t.Error("did not expect user to have ADMIN")
	}
}
