package model

import "strings"

// Role is the closed set of privilege tiers. The three values are totally
// ordered (SUPER_ADMIN > ADMIN > USER); every hierarchy comparison lives in
// the authz package so call sites never string-compare roles ad hoc.
type Role string

const (
	// RoleUser is the default tier assigned at registration.
	RoleUser Role = "USER"
	// RoleAdmin can manage plain users and moderate feedback.
	RoleAdmin Role = "ADMIN"
	// RoleSuperAdmin can manage every account, including other admins.
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// IsValid reports whether r is one of the three known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a raw string into a Role. The boolean is false when
// the input is not one of the three valid roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.IsValid()
}

// ActivationSource records how an account obtained its entitlement.
type ActivationSource string

const (
	// SourceStripe marks accounts activated through a completed checkout.
	SourceStripe ActivationSource = "stripe"
	// SourceAdmin marks accounts activated manually by an administrator.
	SourceAdmin ActivationSource = "admin"
	// SourceBeta marks accounts grandfathered in from the beta program.
	SourceBeta ActivationSource = "beta"
)
