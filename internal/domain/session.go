package domain

import (
	"strings"
	"time"
)

// Tokens is the token set issued by the user pool for a signed-in user.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// WithCalculatedExpiry fills ExpiresAt from ExpiresIn relative to now.
func (t Tokens) WithCalculatedExpiry(now time.Time) Tokens {
	if t.ExpiresIn > 0 {
		t.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).Unix()
	}
	return t
}

// ExpiringWithin reports whether the tokens expire before now+skew. Tokens without a
// known expiry never report as expiring.
func (t Tokens) ExpiringWithin(now time.Time, skew time.Duration) bool {
	if t.ExpiresAt <= 0 {
		return false
	}
	expiresAt := time.Unix(t.ExpiresAt, 0)
	return !expiresAt.After(now.Add(skew))
}

func (t Tokens) Expiry() time.Time {
	if t.ExpiresAt <= 0 {
		return time.Time{}
	}
	return time.Unix(t.ExpiresAt, 0).UTC()
}

// Session is the current authentication session. Tokens is nil when nobody is signed in.
type Session struct {
	Profile ProfileName
	Tokens  *Tokens
}

func (s Session) SignedIn() bool {
	return s.Tokens != nil && strings.TrimSpace(s.Tokens.AccessToken) != ""
}

// IdentityToken extracts the identity token. ok is false when the session carries no
// tokens or the identity token is empty.
func (s Session) IdentityToken() (token string, ok bool) {
	if s.Tokens == nil {
		return "", false
	}
	if s.Tokens.IDToken == "" {
		return "", false
	}
	return s.Tokens.IDToken, true
}
