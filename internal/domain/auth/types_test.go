package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRoleSet_DropsBlanksAndDuplicates(t *testing.T) {
	s := NewRoleSet(RoleAdmin, "", RoleAdmin, RolePatient)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(RoleAdmin))
	assert.False(t, s.Has(RoleDoctor))
	assert.Equal(t, []Role{RoleAdmin, RolePatient}, s.Sorted())
}

func TestRoleSet_Intersects(t *testing.T) {
	tests := []struct {
		name string
		a, b RoleSet
		want bool
	}{
		{"both empty", nil, nil, false},
		{"one empty", NewRoleSet(RoleAdmin), nil, false},
		{"disjoint", NewRoleSet(RoleAdmin), NewRoleSet(RoleDoctor, RolePatient), false},
		{"overlap", NewRoleSet(RoleAdmin, RoleDoctor), NewRoleSet(RoleDoctor), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a))
		})
	}
}

func TestIdentityFromClaims_CopiesRoles(t *testing.T) {
	claims := Claims{
		Subject:   "a@b.com",
		Roles:     NewRoleSet(RolePatient),
		HasRoles:  true,
		UserID:    7,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	id := IdentityFromClaims(claims)

	assert.Equal(t, Identity{
		SubjectEmail:    "a@b.com",
		Roles:           NewRoleSet(RolePatient),
		UserID:          7,
		IsAuthenticated: true,
	}, id)

	claims.Roles[RoleAdmin] = struct{}{}
	assert.False(t, id.Roles.Has(RoleAdmin), "identity must not share the claims' role set")
}

func TestAnonymous(t *testing.T) {
	id := Anonymous()
	assert.False(t, id.IsAuthenticated)
	assert.Zero(t, id.Roles.Len())
	assert.Empty(t, id.SubjectEmail)
}

func TestSession_Ready(t *testing.T) {
	assert.False(t, Session{State: StateInitializing, Loading: true}.Ready())
	assert.True(t, Session{State: StateAnonymous}.Ready())
	assert.Equal(t, "expiring", StateExpiring.String())
}
