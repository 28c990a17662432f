package domain

// IdentityUser is a user as reported by an external identity provider. Role
// is left raw; the core normalizes it.
type IdentityUser struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	Year       string `json:"year,omitempty"`
	Section    string `json:"section,omitempty"`
}

// IdentityResult is the outcome of an external authentication attempt.
type IdentityResult struct {
	Success bool          `json:"success"`
	User    *IdentityUser `json:"user,omitempty"`
	Token   string        `json:"token,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// IdentityFailure builds an unsuccessful result.
func IdentityFailure(msg string) IdentityResult {
	return IdentityResult{Success: false, Error: msg}
}
