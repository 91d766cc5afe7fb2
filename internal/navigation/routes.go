// Package navigation maps application paths to capability requirements and
// decides, for a session snapshot, whether a navigation may proceed.
package navigation

import (
	"net/url"
	"strings"

	"github.com/medplus/medplus-client/internal/domain/auth"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/nao-autorizado"
)

// Route is one navigable path. Public routes skip the guard entirely;
// protected routes require an authenticated identity holding one of Roles
// (any authenticated identity when Roles is empty).
type Route struct {
	Pattern string
	Name    string
	Public  bool
	Roles   auth.RoleSet
}

var routes = []Route{
	{Pattern: "/", Name: "inicio", Public: true},
	{Pattern: "/sobre", Name: "sobre", Public: true},
	{Pattern: "/servicos", Name: "servicos", Public: true},
	{Pattern: "/contatos", Name: "contatos", Public: true},
	{Pattern: LoginPath, Name: "login", Public: true},
	{Pattern: "/registrar", Name: "registrar", Public: true},
	{Pattern: UnauthorizedPath, Name: "nao-autorizado", Public: true},

	{Pattern: "/paciente/dashboard", Name: "paciente-dashboard", Roles: auth.NewRoleSet(auth.RolePatient)},
	{Pattern: "/paciente/agendar-consulta", Name: "agendar-consulta", Roles: auth.NewRoleSet(auth.RolePatient)},
	{Pattern: "/paciente/reagendar-consulta/:id", Name: "reagendar-consulta", Roles: auth.NewRoleSet(auth.RolePatient)},

	{Pattern: "/medico/dashboard", Name: "medico-dashboard", Roles: auth.NewRoleSet(auth.RoleDoctor)},
	{Pattern: "/medico/agenda", Name: "medico-agenda", Roles: auth.NewRoleSet(auth.RoleDoctor)},
	{Pattern: "/medico/pacientes", Name: "medico-pacientes", Roles: auth.NewRoleSet(auth.RoleDoctor)},

	{Pattern: "/admin/dashboard", Name: "admin-dashboard", Roles: auth.NewRoleSet(auth.RoleAdmin)},
	{Pattern: "/admin/gerenciar-usuarios", Name: "admin-usuarios", Roles: auth.NewRoleSet(auth.RoleAdmin)},
	{Pattern: "/admin/gerenciar-consultas", Name: "admin-consultas", Roles: auth.NewRoleSet(auth.RoleAdmin)},
	{Pattern: "/admin/gerenciar-especialidades", Name: "admin-especialidades", Roles: auth.NewRoleSet(auth.RoleAdmin)},
	{Pattern: "/admin/gerenciar-relatorios", Name: "admin-relatorios", Roles: auth.NewRoleSet(auth.RoleAdmin)},

	{Pattern: "/perfil", Name: "perfil"},
}

// Routes returns a copy of the route table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// Match finds the route for path and returns the values bound to its
// :param segments. Query strings and trailing slashes are ignored.
func Match(path string) (Route, map[string]string, bool) {
	segs := split(path)
	for _, r := range routes {
		if params, ok := matchPattern(split(r.Pattern), segs); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func matchPattern(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if name, ok := strings.CutPrefix(p, ":"); ok {
			if segs[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if unescaped, err := url.PathUnescape(p); err == nil {
			parts[i] = unescaped
		}
	}
	return parts
}
