// Package ports defines interfaces (hexagonal ports) for session storage and credential checks.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import "context"

// TokenStore holds the raw bearer credential under a fixed namespaced key.
// Get must be answerable synchronously at process start. An absent credential
// is reported as ok=false with a nil error.
type TokenStore interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	// Clear removes the credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// SignatureVerifier optionally checks a credential's signature before its claims are trusted.
type SignatureVerifier interface {
	Verify(ctx context.Context, token string) error
}
