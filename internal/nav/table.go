package nav

import "github.com/ownerdesk/ownerdesk/internal/identity"

// Routes used as redirect targets across the application.
const (
	SignInPath    = "/auth/sign-in"
	DashboardPath = "/owner/dashboard"
)

// DefaultTable is the application's static route configuration. Order is
// display order.
func DefaultTable() Table {
	return MustTable([]Descriptor{
		{
			Path:   DashboardPath,
			Layout: LayoutOwner,
			Name:   "Dashboard",
			Icon:   "home",
		},
		{
			Layout:         LayoutOwner,
			Name:           "Management",
			CategoryHeader: true,
			Children: []Descriptor{
				{
					Path:   "/owner/users",
					Layout: LayoutOwner,
					Name:   "User Management",
					Icon:   "users",
				},
				{
					Path:   "/owner/profile",
					Layout: LayoutOwner,
					Name:   "Profile",
					Icon:   "user",
					Roles:  []identity.Role{identity.RoleOwner},
				},
			},
		},
		{
			Path:   SignInPath,
			Layout: LayoutAuth,
			Name:   "Sign In",
			Icon:   "lock",
			Roles:  []identity.Role{identity.RoleNone, identity.RoleUser, identity.RoleAdmin, identity.RoleSuperAdmin, identity.RoleOwner},
		},
		{
			Layout:       LayoutLegacy,
			Name:         "Reports",
			RedirectOnly: true,
		},
		{
			Layout:       LayoutOwner,
			Name:         "Owner Home",
			RedirectOnly: true,
		},
	})
}
