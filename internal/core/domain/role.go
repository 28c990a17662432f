package domain

import "strings"

// Role is one of the five portal roles. The set is closed.
type Role string

const (
	RoleStudent     Role = "student"
	RoleFaculty     Role = "faculty"
	RoleCoordinator Role = "coordinator"
	RoleHOD         Role = "hod"
	RoleAdmin       Role = "admin"
)

// roleProfile holds the per-role presentation data used across the portal.
type roleProfile struct {
	label string
	icon  string
	home  string
}

var roleProfiles = map[Role]roleProfile{
	RoleStudent:     {label: "Student", icon: "graduation-cap", home: "/"},
	RoleFaculty:     {label: "Faculty", icon: "book-open", home: "/faculty-dashboard"},
	RoleCoordinator: {label: "Coordinator", icon: "calendar", home: "/coordinator-dashboard"},
	RoleHOD:         {label: "Head of Department", icon: "users", home: "/admin"},
	RoleAdmin:       {label: "Administrator", icon: "shield", home: "/admin"},
}

// Roles lists every role in a stable order.
func Roles() []Role {
	return []Role{RoleStudent, RoleFaculty, RoleCoordinator, RoleHOD, RoleAdmin}
}

// ParseRole converts a raw role string. Matching ignores case and surrounding
// whitespace; anything outside the closed set yields ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleProfiles[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Valid reports whether r is one of the five roles.
func (r Role) Valid() bool {
	_, ok := roleProfiles[r]
	return ok
}

// Label is the human readable role name.
func (r Role) Label() string {
	return roleProfiles[r].label
}

// Icon returns the icon tag shown next to the role. Unknown roles get "menu".
func (r Role) Icon() string {
	if p, ok := roleProfiles[r]; ok {
		return p.icon
	}
	return "menu"
}

// HomePath is where a user of this role lands after logging in.
func (r Role) HomePath() string {
	if p, ok := roleProfiles[r]; ok {
		return p.home
	}
	return "/"
}
