// Package oidc verifies credential signatures against the API's published JWKS.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
)

// KeySetVerifier checks token signatures with keys fetched from a remote JWKS endpoint.
// Claims are not inspected; that stays with the session decoder.
type KeySetVerifier struct {
	keys *gooidc.RemoteKeySet
}

// VerifierConfig holds configuration for the verifier.
type VerifierConfig struct {
	JWKSURL    string
	HTTPClient *http.Client // Optional, defaults to a client with a 30s timeout
}

// NewKeySetVerifier builds a verifier. Keys are fetched lazily on first use and
// refreshed when an unknown key id appears.
func NewKeySetVerifier(ctx context.Context, cfg VerifierConfig) (*KeySetVerifier, error) {
	url := strings.TrimSpace(cfg.JWKSURL)
	if url == "" {
		return nil, errors.New("JWKS URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	// The key set keeps this context for background refreshes.
	ctx = gooidc.ClientContext(context.WithoutCancel(ctx), httpClient)
	return &KeySetVerifier{keys: gooidc.NewRemoteKeySet(ctx, url)}, nil
}

func (v *KeySetVerifier) Verify(ctx context.Context, token string) error {
	if _, err := v.keys.VerifySignature(ctx, token); err != nil {
		return fmt.Errorf("verify token signature: %w", err)
	}
	return nil
}
