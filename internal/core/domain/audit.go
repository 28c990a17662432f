package domain

import "time"

// SessionEventKind classifies an audit trail entry.
type SessionEventKind string

const (
	EventLogin             SessionEventKind = "login"
	EventLoginFailed       SessionEventKind = "login_failed"
	EventLogout            SessionEventKind = "logout"
	EventEventRegistration SessionEventKind = "event_registration"
)

// SessionEvent records an authentication related action.
type SessionEvent struct {
	Kind   SessionEventKind
	UserID string
	Email  string
	Role   Role
	Method string
	Detail string
	At     time.Time
}
