package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RosterEntry is a known demo user.
type RosterEntry struct {
	Email string `json:"email" toml:"email"`
	Name  string `json:"name" toml:"name"`
	Role  Role   `json:"role" toml:"role"`
}

// Roster is the list of known users used for display names and quick login.
type Roster []RosterEntry

// DefaultRoster returns the five built-in demo users.
func DefaultRoster() Roster {
	return Roster{
		{Email: "john.doe@student.iare.ac.in", Name: "John Doe", Role: RoleStudent},
		{Email: "sarah.coordinator@iare.ac.in", Name: "Sarah Johnson", Role: RoleCoordinator},
		{Email: "dr.smith@faculty.iare.ac.in", Name: "Dr. Michael Smith", Role: RoleFaculty},
		{Email: "prof.wilson@hod.iare.ac.in", Name: "Prof. David Wilson", Role: RoleHOD},
		{Email: "admin@iare.ac.in", Name: "Admin User", Role: RoleAdmin},
	}
}

// Lookup returns the entry whose email equals identifier exactly.
func (r Roster) Lookup(identifier string) (RosterEntry, bool) {
	for _, e := range r {
		if e.Email == identifier {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// rolePatterns is checked in order; the first substring match wins.
var rolePatterns = []struct {
	substr string
	role   Role
}{
	{"@student.", RoleStudent},
	{"@faculty.", RoleFaculty},
	{"@hod.", RoleHOD},
	{"coordinator@", RoleCoordinator},
	{"admin@", RoleAdmin},
}

// ResolveRole maps a login identifier to a role by email pattern.
// Identifiers matching no pattern are students.
func ResolveRole(identifier string) Role {
	for _, p := range rolePatterns {
		if strings.Contains(identifier, p.substr) {
			return p.role
		}
	}
	return RoleStudent
}

// ResolveDisplayName returns the roster name for identifier, or derives one
// from the local part: "jane.q.public@x" becomes "Jane Q Public".
func ResolveDisplayName(identifier string, roster Roster) string {
	if e, ok := roster.Lookup(identifier); ok {
		return e.Name
	}

	local, _, _ := strings.Cut(identifier, "@")
	parts := strings.Split(local, ".")
	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// RoleFromGroups maps directory group memberships to a role. Groups are
// matched case-insensitively by substring, most privileged first.
func RoleFromGroups(groups []string) Role {
	joined := strings.ToLower(strings.Join(groups, " "))
	switch {
	case strings.Contains(joined, "admin"):
		return RoleAdmin
	case strings.Contains(joined, "hod"), strings.Contains(joined, "head"):
		return RoleHOD
	case strings.Contains(joined, "faculty"), strings.Contains(joined, "teacher"):
		return RoleFaculty
	case strings.Contains(joined, "coordinator"):
		return RoleCoordinator
	default:
		return RoleStudent
	}
}

// NewUserID builds a session user id such as "STUDENT042".
func NewUserID(role Role) string {
	return fmt.Sprintf("%s%03d", strings.ToUpper(string(role)), rand.IntN(1000))
}
