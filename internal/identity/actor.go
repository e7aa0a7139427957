// Package identity resolves the authenticated actor of a request. Tokens are
// issued elsewhere; this package only looks them up.
package identity

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Role is a coarse permission group.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Actor is the authenticated caller.
type Actor struct {
	ID   int64 `json:"id"`
	Role Role  `json:"role"`
}

// Privileged reports whether the actor sees and acts on every record rather than only their own.
func (a Actor) Privileged() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor may act on a record owned by userID.
func (a Actor) Owns(userID int64) bool {
	return a.Privileged() || a.ID == userID
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

var (
	// ErrUnauthenticated is returned when a request carries no usable credentials.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionNotFound is returned when a bearer token has no live session.
	ErrSessionNotFound = errors.New("session not found")
)

// Resolver turns an incoming request into an Actor.
type Resolver interface {
	Resolve(r *http.Request) (Actor, error)
}

// Header names trusted by HeaderResolver.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// HeaderResolver trusts identity headers set by an upstream gateway.
type HeaderResolver struct{}

// Resolve implements Resolver.
func (HeaderResolver) Resolve(r *http.Request) (Actor, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(HeaderUserID)), 10, 64)
	if err != nil || id <= 0 {
		return Actor{}, ErrUnauthenticated
	}
	role := Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
	if !role.Valid() {
		return Actor{}, ErrUnauthenticated
	}
	return Actor{ID: id, Role: role}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}
