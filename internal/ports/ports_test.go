package ports_test

import (
	"testing"

	"github.com/medplus/medplus-client/internal/adapters/filestore"
	"github.com/medplus/medplus-client/internal/adapters/memstore"
	oidcadapter "github.com/medplus/medplus-client/internal/adapters/oidc"
	redisadapter "github.com/medplus/medplus-client/internal/adapters/redis"
	"github.com/medplus/medplus-client/internal/mocks"
	mocksauth "github.com/medplus/medplus-client/internal/mocks/auth"
	"github.com/medplus/medplus-client/internal/ports"
)

// This test only verifies that adapters and mocks conform to the ports at compile time.
func TestImplementationsSatisfyPorts(t *testing.T) {
	t.Helper()

	var _ ports.TokenStore = (*filestore.TokenStore)(nil)
	var _ ports.TokenStore = (*redisadapter.TokenStore)(nil)
	var _ ports.TokenStore = (*memstore.TokenStore)(nil)
	var _ ports.TokenStore = (*mocksauth.MemoryTokenStore)(nil)
	var _ ports.TokenStore = (*mocks.MockTokenStore)(nil)

	var _ ports.SignatureVerifier = (*oidcadapter.KeySetVerifier)(nil)
	var _ ports.SignatureVerifier = (*mocksauth.StaticVerifier)(nil)
	var _ ports.SignatureVerifier = (*mocks.MockSignatureVerifier)(nil)
}
