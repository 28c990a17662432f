package domain

// UserSession is the single authenticated identity of a browser session.
type UserSession struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
	Year       string `json:"year,omitempty"`
	Section    string `json:"section,omitempty"`
	Provider   string `json:"provider,omitempty"`
}

// FirstName returns the first space separated word of the display name.
func (s *UserSession) FirstName() string {
	for i, r := range s.Name {
		if r == ' ' {
			return s.Name[:i]
		}
	}
	return s.Name
}

// HasRole reports whether the session holds any of the given roles. A nil
// session holds none.
func (s *UserSession) HasRole(roles ...Role) bool {
	if s == nil {
		return false
	}
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}
