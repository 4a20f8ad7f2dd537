package domain

// Role is the coarse grant attached to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Permission is a capability token such as "printer:view".
type Permission string

const (
	PermPrinterView       Permission = "printer:view"
	PermPrinterManage     Permission = "printer:manage"
	PermPrinterSync       Permission = "printer:sync"
	PermPrinterSetDefault Permission = "printer:set_default"

	PermJobView    Permission = "job:view"
	PermJobCreate  Permission = "job:create"
	PermJobCancel  Permission = "job:cancel"
	PermJobPreview Permission = "job:preview"

	PermLogView   Permission = "log:view"
	PermLogExport Permission = "log:export"

	PermAPIDocsView Permission = "api_docs:view"

	PermSystemManage Permission = "system:manage"
	PermUserManage   Permission = "user:manage"
)

// AllPermissions lists every known permission in display order.
var AllPermissions = []Permission{
	PermPrinterView, PermPrinterManage, PermPrinterSync, PermPrinterSetDefault,
	PermJobView, PermJobCreate, PermJobCancel, PermJobPreview,
	PermLogView, PermLogExport,
	PermAPIDocsView,
	PermSystemManage, PermUserManage,
}

var rolePermissions = map[Role][]Permission{
	RoleAdmin: AllPermissions,
	RoleUser: {
		PermPrinterView,
		PermJobView, PermJobCreate, PermJobCancel, PermJobPreview,
		PermLogView,
		PermAPIDocsView,
	},
	RoleGuest: {
		PermPrinterView,
		PermJobView,
		PermLogView,
		PermAPIDocsView,
	},
}

// ParseRole normalizes a role string; anything unrecognized is a guest.
func ParseRole(s string) Role {
	switch r := Role(s); r {
	case RoleAdmin, RoleUser, RoleGuest:
		return r
	}
	return RoleGuest
}

// Permissions returns a copy of the role's grant list.
func (r Role) Permissions() []Permission {
	perms := rolePermissions[ParseRole(string(r))]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Has reports whether the role grants p.
func (r Role) Has(p Permission) bool {
	for _, granted := range rolePermissions[ParseRole(string(r))] {
		if granted == p {
			return true
		}
	}
	return false
}

// PermissionCheck is the detailed answer of Session.CheckPermission.
type PermissionCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
