package handler

import (
	"strings"

	"github.com/devportal/user-registry/internal/core/domain"
)

// toUserResponse projects a user snapshot for the wire. When masked is true
// the personally identifying fields (email, tax code) are obfuscated; the
// caller's authorization level decides which projection it gets.
func toUserResponse(u *domain.User, masked bool) userResponse {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, string(r))
	}

	resp := userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		TaxCode:    u.TaxCode,
		GivenName:  u.GivenName,
		FamilyName: u.FamilyName,
		Status:     string(u.Status),
		Roles:      roles,
		CreatedAt:  u.CreatedAt,
		CreatedBy:  u.CreatedBy,
		UpdatedAt:  u.UpdatedAt,
		UpdatedBy:  u.UpdatedBy,
	}
	if masked {
		resp.Email = maskEmail(u.Email)
		resp.TaxCode = maskTaxCode(u.TaxCode)
	}
	return resp
}

// maskEmail keeps the first character of the local part and the full domain:
// "mario.rossi@example.com" -> "m***@example.com".
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// maskTaxCode keeps the surname triplet and the final two characters:
// "RSSMRA85M01H501Q" -> "RSS***********1Q".
func maskTaxCode(code string) string {
	if len(code) < 6 {
		return "***"
	}
	return code[:3] + strings.Repeat("*", len(code)-5) + code[len(code)-2:]
}
