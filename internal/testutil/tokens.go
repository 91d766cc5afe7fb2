package testutil

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestSigningKey signs every token minted by MintToken.
var TestSigningKey = []byte("medplus-test-signing-key")

// TokenClaims describes a test credential. Zero fields are omitted from the
// payload so tests can build tokens that lack a subject, roles, or expiry.
type TokenClaims struct {
	Subject   string
	Roles     []string
	UserID    any
	ExpiresAt time.Time
	// OmitRoles drops the roles claim entirely; a nil Roles still emits an empty list otherwise.
	OmitRoles bool
	Extra     map[string]any
}

// MintToken returns an HS256-signed credential carrying the given claims.
func MintToken(t TestingTB, c TokenClaims) string {
	t.Helper()

	claims := jwt.MapClaims{}
	if c.Subject != "" {
		claims["sub"] = c.Subject
	}
	if !c.OmitRoles {
		roles := c.Roles
		if roles == nil {
			roles = []string{}
		}
		claims["roles"] = roles
	}
	if c.UserID != nil {
		claims["userId"] = c.UserID
	}
	if !c.ExpiresAt.IsZero() {
		claims["exp"] = c.ExpiresAt.Unix()
	}
	for k, v := range c.Extra {
		claims[k] = v
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(TestSigningKey)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return signed
}

// PatientToken mints a valid one-hour credential for a patient.
func PatientToken(t TestingTB, subject string, userID int64) string {
	t.Helper()
	return MintToken(t, TokenClaims{
		Subject:   subject,
		Roles:     []string{"ROLE_PACIENTE"},
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
	})
}
