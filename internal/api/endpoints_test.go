package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint_Path(t *testing.T) {
	path, err := EndpointAdminDeleteUser.Path("medicos", "42")
	require.NoError(t, err)
	assert.Equal(t, "/admin/usuarios/medicos/42", path)

	path, err = EndpointGetProfile.Path()
	require.NoError(t, err)
	assert.Equal(t, "/perfil", path)

	path, err = EndpointGetConsultation.Path("a/b")
	require.NoError(t, err)
	assert.Equal(t, "/consultas/a%2Fb", path)
}

func TestEndpoint_PathArgumentMismatch(t *testing.T) {
	_, err := EndpointAdminDeleteUser.Path("medicos")
	require.Error(t, err)

	_, err = EndpointGetProfile.Path("extra")
	require.Error(t, err)

	_, err = Endpoint{Name: "broken", PathTemplate: "/x/{id"}.Path("1")
	require.Error(t, err)
}

func TestEndpoints_Catalogue(t *testing.T) {
	seen := map[string]bool{}
	for _, ep := range Endpoints() {
		assert.False(t, seen[ep.Name], "duplicate endpoint %s", ep.Name)
		seen[ep.Name] = true
		assert.NotEmpty(t, ep.PathTemplate)
		assert.Contains(t, []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}, ep.Method)
	}
	assert.Len(t, seen, 24)
}
