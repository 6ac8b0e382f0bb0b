package utils // package utils provides helper functions for token creation

import (
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Roles embedded in token claims.  ADMIN tokens act on behalf of one
// establishment; the MASTER token bypasses tenant scoping entirely.
const (
	RoleAdmin  = "ADMIN"
	RoleMaster = "MASTER"
)

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAdminToken builds and signs an HS256 JWT for an establishment admin.
// The claims carry the admin ID as subject, the establishment ID used by
// the tenant guard, the ADMIN role, expiration and issued-at.
func NewAdminToken(secret string, adminID, establishmentID uint64, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":              adminID,
		"establishment_id": establishmentID,
		"role":             RoleAdmin,
		"exp":              exp.Unix(),
		"iat":              time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewMasterToken builds and signs an HS256 JWT for the master account.
// Master tokens carry no establishment claim; tenant scoping does not
// apply to them.
func NewMasterToken(secret string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"role": RoleMaster,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
