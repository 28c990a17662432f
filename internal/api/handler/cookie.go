package handler

import (
	"net/http"
	"time"
)

// SessionCookie describes the browser cookie that carries the session token.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (sc SessionCookie) issue(token string) *http.Cookie {
	return &http.Cookie{
		Name:     sc.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sc.TTL.Seconds()),
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (sc SessionCookie) clear() *http.Cookie {
	return &http.Cookie{
		Name:     sc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
