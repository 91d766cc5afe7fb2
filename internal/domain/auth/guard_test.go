package auth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// identities covers every combination of authentication flag and known role.
func identities() []Identity {
	all := []Role{RoleAdmin, RoleDoctor, RolePatient}
	var out []Identity
	for mask := 0; mask < 1<<len(all); mask++ {
		var roles []Role
		for i, r := range all {
			if mask&(1<<i) != 0 {
				roles = append(roles, r)
			}
		}
		for _, authed := range []bool{false, true} {
			out = append(out, Identity{
				SubjectEmail:    "user@medplus.test",
				Roles:           NewRoleSet(roles...),
				IsAuthenticated: authed,
			})
		}
	}
	return out
}

func TestIsAllowed_EmptyRequirementMatchesAuthentication(t *testing.T) {
	for i, id := range identities() {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			assert.Equal(t, id.IsAuthenticated, IsAllowed(id, RoleSet{}))
			assert.Equal(t, id.IsAuthenticated, IsAllowed(id, nil))
		})
	}
}

func TestIsAllowed_AdminRequirement(t *testing.T) {
	required := NewRoleSet(RoleAdmin)
	for i, id := range identities() {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			want := id.IsAuthenticated && id.Roles.Has(RoleAdmin)
			assert.Equal(t, want, IsAllowed(id, required))
		})
	}
}

func TestIsAllowed_NoHierarchy(t *testing.T) {
	admin := Identity{Roles: NewRoleSet(RoleAdmin), IsAuthenticated: true}
	assert.False(t, IsAllowed(admin, NewRoleSet(RoleDoctor)))
	assert.True(t, IsAllowed(admin, NewRoleSet(RoleDoctor, RoleAdmin)))
}

func TestIsAllowed_RolesWithoutAuthentication(t *testing.T) {
	forged := Identity{Roles: NewRoleSet(RoleAdmin)}
	assert.False(t, IsAllowed(forged, NewRoleSet(RoleAdmin)))
}

func TestHomePath(t *testing.T) {
	tests := []struct {
		roles []Role
		authd bool
		want  string
	}{
		{[]Role{RoleAdmin, RoleDoctor, RolePatient}, true, AdminHome},
		{[]Role{RoleDoctor, RolePatient}, true, DoctorHome},
		{[]Role{RolePatient}, true, PatientHome},
		{nil, true, PublicHome},
		{[]Role{RoleAdmin}, false, PublicHome},
	}
	for _, tt := range tests {
		id := Identity{Roles: NewRoleSet(tt.roles...), IsAuthenticated: tt.authd}
		assert.Equal(t, tt.want, HomePath(id), "roles=%v authenticated=%v", tt.roles, tt.authd)
	}
}

func TestCapabilitiesOf(t *testing.T) {
	id := Identity{Roles: NewRoleSet(RoleDoctor), IsAuthenticated: true}
	assert.Equal(t, Capabilities{IsDoctor: true}, CapabilitiesOf(id))
	assert.Equal(t, Capabilities{}, CapabilitiesOf(Anonymous()))
}
