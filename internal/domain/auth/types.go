// Package auth contains domain-level types for credentials, identities and sessions.
// It is pure and free of framework/adapter concerns.
package auth

import (
	"slices"
	"time"
)

// Role represents an authorization role as carried in the credential's roles claim.
// Keep the string form so values round-trip unchanged to and from the remote API.
type Role string

const (
	RoleAdmin   Role = "ROLE_ADMIN"
	RoleDoctor  Role = "ROLE_MEDICO"
	RolePatient Role = "ROLE_PACIENTE"
)

// RoleSet is an unordered set of roles. The zero value is an empty set.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles, dropping blanks and duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether r is a member of the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether the two sets share at least one role.
func (s RoleSet) Intersects(other RoleSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for r := range small {
		if large.Has(r) {
			return true
		}
	}
	return false
}

// Len returns the number of roles in the set.
func (s RoleSet) Len() int { return len(s) }

// Sorted returns the roles in lexical order.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Claims is the decoded payload of a credential.
type Claims struct {
	Subject string
	Roles   RoleSet
	// HasRoles is true when the token carried a roles claim at all, even an empty one.
	HasRoles  bool
	UserID    int64
	ExpiresAt time.Time
}

// Identity is the in-memory view of who is acting now.
// Build authenticated identities only through IdentityFromClaims.
type Identity struct {
	SubjectEmail    string
	Roles           RoleSet
	UserID          int64
	IsAuthenticated bool
}

// Anonymous returns the "no identity" value.
func Anonymous() Identity {
	return Identity{Roles: RoleSet{}}
}

// IdentityFromClaims derives an authenticated identity from validated claims.
func IdentityFromClaims(c Claims) Identity {
	roles := make(RoleSet, len(c.Roles))
	for r := range c.Roles {
		roles[r] = struct{}{}
	}
	return Identity{
		SubjectEmail:    c.Subject,
		Roles:           roles,
		UserID:          c.UserID,
		IsAuthenticated: true,
	}
}

// State is a step of the session lifecycle.
type State int

const (
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticated
	// StateExpiring is transient: teardown is in progress after an auth failure.
	StateExpiring
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	case StateExpiring:
		return "expiring"
	default:
		return "unknown"
	}
}

// Session pairs the credential with its identity. Loading is true until
// startup decoding has completed.
type Session struct {
	State      State
	Credential string
	Identity   Identity
	Loading    bool
}

// Ready reports whether startup decoding has finished.
func (s Session) Ready() bool { return !s.Loading && s.State != StateInitializing }
