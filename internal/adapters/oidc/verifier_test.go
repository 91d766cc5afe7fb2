package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jwksServer(t *testing.T, kid string, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": kid,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signRS256(t *testing.T, key *rsa.PrivateKey, kid string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub":   "a@b.com",
		"roles": []string{"ROLE_PACIENTE"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewKeySetVerifier_RequiresURL(t *testing.T) {
	_, err := NewKeySetVerifier(context.Background(), VerifierConfig{JWKSURL: "  "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWKS URL is required")
}

func TestKeySetVerifier_Verify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := jwksServer(t, "k1", &key.PublicKey)
	v, err := NewKeySetVerifier(context.Background(), VerifierConfig{JWKSURL: srv.URL})
	require.NoError(t, err)

	t.Run("valid signature", func(t *testing.T) {
		require.NoError(t, v.Verify(context.Background(), signRS256(t, key, "k1")))
	})

	t.Run("signed by unknown key", func(t *testing.T) {
		err := v.Verify(context.Background(), signRS256(t, other, "k1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "verify token signature")
	})

	t.Run("not a jws", func(t *testing.T) {
		require.Error(t, v.Verify(context.Background(), "garbage"))
	})
}
