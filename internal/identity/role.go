// Package identity holds the persisted identity record and role resolution.
package identity

import "strings"

// Role classifies a user's permission level. Values are always stored in
// normalized form (trimmed, lower-cased) so comparisons never depend on how
// the upstream service spelled them.
type Role string

// Known roles. RoleNone marks an unauthenticated or unresolvable identity.
const (
	RoleNone       Role = ""
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super admin"
	RoleOwner      Role = "owner"
)

// NormalizeRole maps an arbitrary role string into normalized form.
func NormalizeRole(raw string) Role {
	return Role(strings.ToLower(strings.TrimSpace(raw)))
}

// Known reports whether the role is one of the closed set.
func (r Role) Known() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleOwner:
		return true
	}
	return false
}
