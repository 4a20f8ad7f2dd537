package domain

import "time"

// User is the operator profile returned by the backend.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Session is an authenticated operator: the backend token plus profile.
// Remember selects the persistence scope.
type Session struct {
	ID          string    `json:"id"`
	Token       string    `json:"token"`
	User        User      `json:"user"`
	Remember    bool      `json:"remember"`
	CreatedAt   time.Time `json:"created_at"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Authenticated reports whether the session carries a token. A nil session
// is unauthenticated.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Role is the effective role. Unauthenticated sessions are guests.
func (s *Session) Role() Role {
	if !s.Authenticated() {
		return RoleGuest
	}
	return ParseRole(s.User.Role)
}

// Permissions is the effective grant list; empty when unauthenticated.
func (s *Session) Permissions() []Permission {
	if !s.Authenticated() {
		return nil
	}
	return s.Role().Permissions()
}

func (s *Session) HasPermission(p Permission) bool {
	if !s.Authenticated() {
		return false
	}
	return s.Role().Has(p)
}

// HasAnyPermission is true iff the grant list intersects perms.
func (s *Session) HasAnyPermission(perms ...Permission) bool {
	if !s.Authenticated() {
		return false
	}
	for _, p := range perms {
		if s.Role().Has(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is true iff the grant list is a superset of perms.
// With no perms it is true for any authenticated session and false for an
// anonymous one, so RequireAllPermissions() with no arguments only requires
// a login.
func (s *Session) HasAllPermissions(perms ...Permission) bool {
	if !s.Authenticated() {
		return false
	}
	for _, p := range perms {
		if !s.Role().Has(p) {
			return false
		}
	}
	return true
}

func (s *Session) HasRole(r Role) bool {
	return s.Authenticated() && s.Role() == r
}

func (s *Session) HasAnyRole(roles ...Role) bool {
	if !s.Authenticated() {
		return false
	}
	for _, r := range roles {
		if s.Role() == r {
			return true
		}
	}
	return false
}

func (s *Session) CheckPermission(p Permission) PermissionCheck {
	if !s.Authenticated() {
		return PermissionCheck{Reason: "not logged in"}
	}
	if !s.HasPermission(p) {
		return PermissionCheck{Reason: "not permitted to perform this operation"}
	}
	return PermissionCheck{Allowed: true}
}
