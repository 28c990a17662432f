package domain

import "errors"

var (
	ErrMissingCredentials    = errors.New("please enter both email and password")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("user already exists")
	ErrUnknownRole           = errors.New("unknown role")
	ErrForbidden             = errors.New("access forbidden")
	ErrSessionNotFound       = errors.New("session not found")
	ErrIdentityProvider      = errors.New("identity provider rejected login")
	ErrProviderNotConfigured = errors.New("identity provider not configured")
	ErrDemoDisabled          = errors.New("demo login disabled")
	ErrInvalidState          = errors.New("invalid or expired login state")
)
