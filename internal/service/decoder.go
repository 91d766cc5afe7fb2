package service

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/medplus/medplus-client/internal/domain/auth"
	apperrors "github.com/medplus/medplus-client/internal/errors"
)

// Reasons attached to InvalidToken failures.
const (
	ReasonMalformed     = "malformed"
	ReasonExpired       = "expired"
	ReasonMissingFields = "missing required fields"
)

// DecoderOptions groups dependencies for Decoder.
type DecoderOptions struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Decoder turns a raw credential into claims and an identity. It reads the
// payload without verifying the signature; signatures are the remote API's
// concern unless a SignatureVerifier is configured on the session manager.
type Decoder struct {
	now    func() time.Time
	parser *jwt.Parser
}

// NewDecoder constructs a Decoder.
func NewDecoder(opts DecoderOptions) *Decoder {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Decoder{
		now:    now,
		parser: jwt.NewParser(jwt.WithJSONNumber()),
	}
}

// Decode validates the credential and derives an identity from it.
// Every failure is an InvalidToken error whose message carries the reason.
func (d *Decoder) Decode(token string) (domainauth.Claims, domainauth.Identity, error) {
	claims, err := d.parse(token)
	if err != nil {
		return domainauth.Claims{}, domainauth.Anonymous(), err
	}
	if claims.ExpiresAt.Unix()*1000 < d.now().UnixMilli() {
		return domainauth.Claims{}, domainauth.Anonymous(), apperrors.InvalidToken(ReasonExpired)
	}
	if claims.Subject == "" && !claims.HasRoles {
		return domainauth.Claims{}, domainauth.Anonymous(), apperrors.InvalidToken(ReasonMissingFields)
	}
	return claims, domainauth.IdentityFromClaims(claims), nil
}

// ExpiresAt reports the credential's expiry without validating anything else.
func (d *Decoder) ExpiresAt(token string) (time.Time, bool) {
	claims, err := d.parse(token)
	if err != nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt, true
}

func (d *Decoder) parse(token string) (domainauth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domainauth.Claims{}, apperrors.InvalidToken(ReasonMalformed)
	}

	raw := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(token, raw); err != nil {
		return domainauth.Claims{}, malformed(err)
	}

	exp, err := raw.GetExpirationTime()
	if err != nil {
		return domainauth.Claims{}, malformed(err)
	}
	if exp == nil {
		return domainauth.Claims{}, apperrors.InvalidToken(ReasonMalformed)
	}

	sub, err := raw.GetSubject()
	if err != nil {
		return domainauth.Claims{}, malformed(err)
	}

	roles, hasRoles, err := rolesClaim(raw)
	if err != nil {
		return domainauth.Claims{}, malformed(err)
	}

	userID, err := userIDClaim(raw)
	if err != nil {
		return domainauth.Claims{}, malformed(err)
	}

	return domainauth.Claims{
		Subject:   sub,
		Roles:     roles,
		HasRoles:  hasRoles,
		UserID:    userID,
		ExpiresAt: exp.Time,
	}, nil
}

func malformed(cause error) error {
	e := apperrors.InvalidToken(ReasonMalformed)
	e.Cause = cause
	return e
}

// rolesClaim accepts a JSON array of strings or a single comma-separated string.
func rolesClaim(raw jwt.MapClaims) (domainauth.RoleSet, bool, error) {
	v, ok := raw["roles"]
	if !ok || v == nil {
		return domainauth.RoleSet{}, false, nil
	}
	switch roles := v.(type) {
	case []any:
		set := make(domainauth.RoleSet, len(roles))
		for _, r := range roles {
			s, ok := r.(string)
			if !ok {
				return nil, false, jwt.ErrInvalidType
			}
			if s = strings.TrimSpace(s); s != "" {
				set[domainauth.Role(s)] = struct{}{}
			}
		}
		return set, true, nil
	case string:
		var list []domainauth.Role
		for _, s := range strings.Split(roles, ",") {
			list = append(list, domainauth.Role(strings.TrimSpace(s)))
		}
		return domainauth.NewRoleSet(list...), true, nil
	default:
		return nil, false, jwt.ErrInvalidType
	}
}

// userIDClaim accepts a JSON number or a numeric string; absent means zero.
func userIDClaim(raw jwt.MapClaims) (int64, error) {
	v, ok := raw["userId"]
	if !ok || v == nil {
		return 0, nil
	}
	switch id := v.(type) {
	case json.Number:
		return id.Int64()
	case float64:
		return int64(id), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	default:
		return 0, jwt.ErrInvalidType
	}
}
