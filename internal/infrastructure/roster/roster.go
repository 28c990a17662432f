// Package roster loads the list of known portal users from a TOML file.
//
//	[[users]]
//	email = "john.doe@student.iare.ac.in"
//	name  = "John Doe"
//	role  = "student"
package roster

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/iare/sceh-portal/internal/core/domain"
)

type file struct {
	Users []domain.RosterEntry `toml:"users"`
}

// Load reads the roster at path. An empty path yields the built-in demo
// roster.
func Load(path string) (domain.Roster, error) {
	if path == "" {
		return domain.DefaultRoster(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates roster TOML.
func Parse(b []byte) (domain.Roster, error) {
	var f file
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("roster: decode: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Users))
	out := make(domain.Roster, 0, len(f.Users))
	for i, u := range f.Users {
		u.Email = strings.TrimSpace(u.Email)
		if u.Email == "" {
			return nil, fmt.Errorf("roster: user %d has no email", i+1)
		}
		if _, dup := seen[u.Email]; dup {
			return nil, fmt.Errorf("roster: duplicate email %s", u.Email)
		}
		seen[u.Email] = struct{}{}

		if u.Role == "" {
			u.Role = domain.ResolveRole(u.Email)
		}
		role, err := domain.ParseRole(string(u.Role))
		if err != nil {
			return nil, fmt.Errorf("roster: %s: %w", u.Email, err)
		}
		u.Role = role
		if u.Name == "" {
			u.Name = domain.ResolveDisplayName(u.Email, nil)
		}
		out = append(out, u)
	}
	return out, nil
}
