package domain

import (
	"fmt"
	"time"
)

const anonymousWelcome = "Welcome to SCEH++ Portal"

// WelcomeMessage greets the session user according to the hour of now.
// Students are greeted by first name; other roles by full name.
func WelcomeMessage(s *UserSession, now time.Time) string {
	if s == nil {
		return anonymousWelcome
	}

	greeting := "Good evening"
	switch h := now.Hour(); {
	case h < 12:
		greeting = "Good morning"
	case h < 17:
		greeting = "Good afternoon"
	}

	switch s.Role {
	case RoleStudent:
		return fmt.Sprintf("%s, %s! 🎓", greeting, s.FirstName())
	case RoleFaculty:
		return fmt.Sprintf("%s, %s! 📚", greeting, s.Name)
	case RoleHOD:
		return fmt.Sprintf("%s, %s! 👥", greeting, s.Name)
	case RoleAdmin:
		return fmt.Sprintf("%s, %s! 🛡️", greeting, s.Name)
	default:
		return fmt.Sprintf("%s, %s!", greeting, s.Name)
	}
}
