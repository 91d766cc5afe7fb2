package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintToken_OmitsZeroFields(t *testing.T) {
	token := MintToken(t, TokenClaims{OmitRoles: true})

	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestMintToken_Verifies(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	token := MintToken(t, TokenClaims{
		Subject:   "a@b.com",
		Roles:     []string{"ROLE_ADMIN"},
		UserID:    3,
		ExpiresAt: exp,
	})

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return TestSigningKey, nil })
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims["sub"])
	assert.Equal(t, []any{"ROLE_ADMIN"}, claims["roles"])
	assert.InDelta(t, float64(exp.Unix()), claims["exp"], 0)
}
