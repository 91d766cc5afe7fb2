package navigation

import (
	"testing"

	"github.com/medplus/medplus-client/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(state auth.State, roles ...auth.Role) auth.Session {
	s := auth.Session{State: state, Identity: auth.Anonymous()}
	if state == auth.StateInitializing {
		s.Loading = true
	}
	if state == auth.StateAuthenticated {
		s.Credential = "tok"
		s.Identity = auth.Identity{
			SubjectEmail:    "user@medplus.test",
			Roles:           auth.NewRoleSet(roles...),
			UserID:          7,
			IsAuthenticated: true,
		}
	}
	return s
}

func TestMatch(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		params  map[string]string
		ok      bool
	}{
		{path: "/", pattern: "/", ok: true},
		{path: "", pattern: "/", ok: true},
		{path: "/perfil/", pattern: "/perfil", ok: true},
		{path: "/medico/agenda?dia=hoje", pattern: "/medico/agenda", ok: true},
		{path: "/paciente/reagendar-consulta/15", pattern: "/paciente/reagendar-consulta/:id", params: map[string]string{"id": "15"}, ok: true},
		{path: "/paciente/reagendar-consulta", ok: false},
		{path: "/paciente/reagendar-consulta/1/2", ok: false},
		{path: "/desconhecido", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, params, ok := Match(tt.path)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.pattern, r.Pattern)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestRoutes_ReturnsCopy(t *testing.T) {
	rs := Routes()
	require.NotEmpty(t, rs)
	rs[0].Pattern = "/mutated"
	assert.Equal(t, "/", Routes()[0].Pattern)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		session auth.Session
		path    string
		outcome Outcome
		target  string
	}{
		{name: "public while initializing", session: session(auth.StateInitializing), path: "/sobre", outcome: Allow},
		{name: "protected while initializing", session: session(auth.StateInitializing), path: "/perfil", outcome: Wait},
		{name: "anonymous to protected", session: session(auth.StateAnonymous), path: "/medico/agenda", outcome: RedirectLogin, target: "/login?from=%2Fmedico%2Fagenda"},
		{name: "expiring treated as signed out", session: session(auth.StateExpiring), path: "/perfil", outcome: RedirectLogin, target: "/login?from=%2Fperfil"},
		{name: "doctor on doctor page", session: session(auth.StateAuthenticated, auth.RoleDoctor), path: "/medico/agenda", outcome: Allow},
		{name: "patient on doctor page", session: session(auth.StateAuthenticated, auth.RolePatient), path: "/medico/agenda", outcome: RedirectUnauthorized, target: UnauthorizedPath},
		{name: "admin has no hierarchy", session: session(auth.StateAuthenticated, auth.RoleAdmin), path: "/paciente/dashboard", outcome: RedirectUnauthorized, target: UnauthorizedPath},
		{name: "any role for profile", session: session(auth.StateAuthenticated), path: "/perfil", outcome: Allow},
		{name: "unknown path", session: session(auth.StateAuthenticated, auth.RoleAdmin), path: "/nada", outcome: RedirectHome, target: "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.session, tt.path)
			assert.Equal(t, tt.outcome, d.Outcome, d.Outcome.String())
			assert.Equal(t, tt.target, d.Target)
		})
	}
}

func TestDecide_KeepsFromAndParams(t *testing.T) {
	d := Decide(session(auth.StateAnonymous), "/paciente/reagendar-consulta/3")
	assert.Equal(t, RedirectLogin, d.Outcome)
	assert.Equal(t, "/paciente/reagendar-consulta/3", d.From)
	assert.Equal(t, "3", d.Params["id"])

	d = Decide(session(auth.StateAuthenticated, auth.RolePatient), "/paciente/reagendar-consulta/3")
	assert.Equal(t, Allow, d.Outcome)
	assert.Equal(t, "reagendar-consulta", d.Route.Name)
}

func TestDecide_ProtectedRoutesAgreeWithGuard(t *testing.T) {
	roles := [][]auth.Role{nil, {auth.RoleAdmin}, {auth.RoleDoctor}, {auth.RolePatient}, {auth.RoleDoctor, auth.RolePatient}}
	for _, r := range Routes() {
		if r.Public {
			continue
		}
		for _, held := range roles {
			s := session(auth.StateAuthenticated, held...)
			d := Decide(s, r.Pattern)
			allowed := auth.IsAllowed(s.Identity, r.Roles)
			assert.Equal(t, allowed, d.Outcome == Allow, "%s with %v", r.Pattern, held)
		}
	}
}

func TestLoginTarget(t *testing.T) {
	assert.Equal(t, "/login", LoginTarget(""))
	assert.Equal(t, "/login?from=%2Fperfil", LoginTarget("/perfil"))
}
