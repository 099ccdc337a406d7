package domain

import (
	"sort"
	"time"
)

// Caller roles recognised at the API boundary. These identify the
// authenticated caller of a lifecycle operation and are unrelated to the
// ApplicationRoles stored on user records.
const (
	CallerRoleAdmin  = "admin"
	CallerRoleViewer = "viewer"
)

// UserStatus represents the lifecycle state of a user record.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusDisabled UserStatus = "DISABLED"
	StatusDeleted  UserStatus = "DELETED"
)

// validTransitions defines the allowed state machine transitions.
// DELETED is terminal: it has no outgoing edges.
var validTransitions = map[UserStatus][]UserStatus{
	StatusActive:   {StatusDisabled, StatusDeleted},
	StatusDisabled: {StatusActive, StatusDeleted},
}

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s UserStatus) CanTransitionTo(next UserStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid reports whether s is one of the known lifecycle states.
func (s UserStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusDisabled, StatusDeleted:
		return true
	}
	return false
}

// ApplicationRole is one of the fixed application-level roles a user may hold.
type ApplicationRole string

const (
	RoleAppAdmin      ApplicationRole = "ADMIN"
	RoleAppMaintainer ApplicationRole = "MAINTAINER"
	RoleAppDeveloper  ApplicationRole = "DEVELOPER"
	RoleAppReporter   ApplicationRole = "REPORTER"
	RoleAppGuest      ApplicationRole = "GUEST"
)

var knownRoles = map[ApplicationRole]struct{}{
	RoleAppAdmin:      {},
	RoleAppMaintainer: {},
	RoleAppDeveloper:  {},
	RoleAppReporter:   {},
	RoleAppGuest:      {},
}

// IsValid reports whether r belongs to the closed role set.
func (r ApplicationRole) IsValid() bool {
	_, ok := knownRoles[r]
	return ok
}

// NormalizeRoles collapses duplicates and returns the role set in a stable
// sorted order. Membership is a set: ordering and multiplicity never matter.
func NormalizeRoles(roles []ApplicationRole) []ApplicationRole {
	seen := make(map[ApplicationRole]struct{}, len(roles))
	out := make([]ApplicationRole, 0, len(roles))
	for _, r := range roles {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// User is the core aggregate root: an identity and profile record.
// Records are never physically removed; deletion flips Status to DELETED.
type User struct {
	ID         string            `json:"id"`
	Username   string            `json:"username"`
	Email      string            `json:"email"`
	TaxCode    string            `json:"tax_code"`
	GivenName  string            `json:"given_name"`
	FamilyName string            `json:"family_name"`
	Status     UserStatus        `json:"status"`
	Roles      []ApplicationRole `json:"roles"`
	CreatedAt  time.Time         `json:"created_at"`
	CreatedBy  string            `json:"created_by"`
	UpdatedAt  time.Time         `json:"updated_at"`
	UpdatedBy  string            `json:"updated_by"`
}

// HasRole reports whether the user's role set contains r.
func (u *User) HasRole(r ApplicationRole) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}
