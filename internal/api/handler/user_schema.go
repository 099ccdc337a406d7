package handler

import "time"

// --- Request types ---

type createUserRequest struct {
	Username   string   `json:"username"    validate:"required,min=3,max=64"`
	Email      string   `json:"email"       validate:"required,email"`
	TaxCode    string   `json:"tax_code"    validate:"required,len=16"`
	GivenName  string   `json:"given_name"  validate:"required"`
	FamilyName string   `json:"family_name" validate:"required"`
	Roles      []string `json:"roles"       validate:"required,min=1,dive,oneof=ADMIN MAINTAINER DEVELOPER REPORTER GUEST"`
}

// updateUserRequest is a partial patch: absent (null) fields are left
// untouched, a present roles array replaces the whole role set.
type updateUserRequest struct {
	Username   *string  `json:"username"    validate:"omitempty,min=3,max=64"`
	Email      *string  `json:"email"       validate:"omitempty,email"`
	TaxCode    *string  `json:"tax_code"    validate:"omitempty,len=16"`
	GivenName  *string  `json:"given_name"  validate:"omitempty,min=1"`
	FamilyName *string  `json:"family_name" validate:"omitempty,min=1"`
	Roles      []string `json:"roles"       validate:"omitempty,min=1,dive,oneof=ADMIN MAINTAINER DEVELOPER REPORTER GUEST"`
}

// --- Response types ---

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	TaxCode    string    `json:"tax_code"`
	GivenName  string    `json:"given_name"`
	FamilyName string    `json:"family_name"`
	Status     string    `json:"status"`
	Roles      []string  `json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  string    `json:"created_by"`
	UpdatedAt  time.Time `json:"updated_at"`
	UpdatedBy  string    `json:"updated_by"`
}

type listUsersResponse struct {
	Items []userResponse `json:"items"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Total int64          `json:"total"`
}

type availabilityResponse struct {
	Available bool   `json:"available"`
	Field     string `json:"field,omitempty"`
}
