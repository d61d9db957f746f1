// Package authz is the pure authorization policy engine. Every role
// hierarchy comparison in the service goes through here; handlers and
// middleware never compare role strings themselves.
//
// Checks are conjunctive: every condition must hold, and the first failing
// condition determines the reason surfaced to the caller. The self-deletion
// check runs before the hierarchy check because "cannot delete yourself" is
// the more specific failure.
package authz

import "github.com/iliyamo/receipt-vault/internal/model"

// Decision is the outcome of a policy check. Reason is safe to show to the
// caller; it never includes target user data.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r string) Decision { return Decision{Reason: r} }

var roleLevel = map[model.Role]int{
	model.RoleUser:       0,
	model.RoleAdmin:      1,
	model.RoleSuperAdmin: 2,
}

// IsStaff reports whether a role sits in the admin tier.
func IsStaff(r model.Role) bool {
	return r == model.RoleAdmin || r == model.RoleSuperAdmin
}

// CanViewUsers covers both the user list and the user detail view.
func CanViewUsers(actor model.Role) Decision {
	if !IsStaff(actor) {
		return deny("insufficient permissions")
	}
	return allow()
}

// CanDeleteUser decides whether actor may delete a user with role target.
// No role may self-delete. SUPER_ADMIN may delete any non-self target,
// including other SUPER_ADMINs. ADMIN may delete only plain USERs.
func CanDeleteUser(actor, target model.Role, isSelf bool) Decision {
	if !IsStaff(actor) {
		return deny("insufficient permissions")
	}
	if isSelf {
		return deny("cannot delete yourself")
	}
	if actor == model.RoleSuperAdmin {
		return allow()
	}
	// actor is ADMIN here
	if target != model.RoleUser {
		return deny("insufficient permissions")
	}
	return allow()
}

// CanChangeRole decides whether actor may move a user from targetCurrent to
// newRole. Only SUPER_ADMIN may grant SUPER_ADMIN, and an ADMIN may only
// modify plain USERs. SUPER_ADMIN may change anyone, itself included.
func CanChangeRole(actor, targetCurrent, newRole model.Role) Decision {
	if !IsStaff(actor) {
		return deny("insufficient permissions")
	}
	if !newRole.IsValid() {
		return deny("invalid role")
	}
	if actor == model.RoleSuperAdmin {
		return allow()
	}
	// actor is ADMIN here
	if newRole == model.RoleSuperAdmin {
		return deny("insufficient permissions")
	}
	if targetCurrent != model.RoleUser {
		return deny("insufficient permissions")
	}
	return allow()
}

// CanModerateFeedback covers listing and editing feedback entries.
func CanModerateFeedback(actor model.Role) Decision {
	if !IsStaff(actor) {
		return deny("insufficient permissions")
	}
	return allow()
}

// SanitizeShowcase applies the showcase policy: only positive feedback may
// be showcased. A request to showcase anything else is silently downgraded
// to not-showcased; this is policy, not an error.
func SanitizeShowcase(ftype model.FeedbackType, requested bool) bool {
	if !requested {
		return false
	}
	return ftype == model.FeedbackPositive
}

// AtLeast reports whether r meets the minimum required tier. Unknown roles
// never qualify.
func AtLeast(r, min model.Role) bool {
	lvl, ok := roleLevel[r]
	if !ok {
		return false
	}
	minLvl, ok := roleLevel[min]
	if !ok {
		return false
	}
	return lvl >= minLvl
}
