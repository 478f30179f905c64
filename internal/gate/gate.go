// Package gate decides, per request, whether the resolved role may enter the
// owner-restricted area.
package gate

import "github.com/ownerdesk/ownerdesk/internal/identity"

// State is the admission state for one request.
type State int

const (
	// StateLoading means the identity has not been resolved yet.
	StateLoading State = iota
	// StateDenied means the resolved role does not match; the caller must
	// redirect to sign-in rather than render an error.
	StateDenied
	// StateGranted admits the protected subtree.
	StateGranted
)

// String implements fmt.Stringer for logs.
func (s State) String() string {
	switch s {
	case StateDenied:
		return "denied"
	case StateGranted:
		return "granted"
	default:
		return "loading"
	}
}

// Decision is the terminal result of one resolution. Decisions are
// per-request; a later change to the stored identity requires a fresh
// resolution.
type Decision struct {
	State State
	Role  identity.Role
}

// Gate admits exactly one role.
type Gate struct {
	permitted identity.Role
}

// New builds a Gate for the permitted role.
func New(permitted identity.Role) *Gate {
	return &Gate{permitted: permitted}
}

// Evaluate resolves the raw identity payload into a terminal decision.
// An absent or unparsable payload resolves to RoleNone and is denied; so is
// any role other than the permitted one.
func (g *Gate) Evaluate(rawIdentity string) Decision {
	role := identity.ResolveRole(rawIdentity)
	if role == g.permitted {
		return Decision{State: StateGranted, Role: role}
	}
	return Decision{State: StateDenied, Role: role}
}
