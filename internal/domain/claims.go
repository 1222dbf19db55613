package domain

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// IdentityClaims is the unverified payload of a user pool identity token.
type IdentityClaims struct {
	Subject         string `json:"sub"`
	Email           string `json:"email"`
	CognitoUsername string `json:"cognito:username"`
	TokenUse        string `json:"token_use"`
	IssuedAt        int64  `json:"iat"`
	ExpiresAt       int64  `json:"exp"`
}

// ParseIdentityClaims decodes the JWT payload without verifying the signature.
// Malformed tokens yield zero claims.
func ParseIdentityClaims(token string) IdentityClaims {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return IdentityClaims{}
	}

	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return IdentityClaims{}
	}

	var claims IdentityClaims
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return IdentityClaims{}
	}

	return claims
}

func (c IdentityClaims) DisplayName() string {
	if c.Email != "" {
		return c.Email
	}
	if c.CognitoUsername != "" {
		return c.CognitoUsername
	}
	return c.Subject
}

func (c IdentityClaims) Lifetime() (issuedAt time.Time, expiresAt time.Time) {
	if c.IssuedAt > 0 {
		issuedAt = time.Unix(c.IssuedAt, 0).UTC()
	}
	if c.ExpiresAt > 0 {
		expiresAt = time.Unix(c.ExpiresAt, 0).UTC()
	}
	return issuedAt, expiresAt
}
