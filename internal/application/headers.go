package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
)

const (
	AuthorizationHeader = "Authorization"

	// EmptyAuthorizationFallback is sent when the session carries no identity token.
	// The header is always present so the HTTP layer sees the same header set for
	// signed-in and signed-out callers.
	EmptyAuthorizationFallback = ""
)

var errNilSessionProvider = errors.New("session provider is nil")

// HeaderFunc computes request headers at call time.
type HeaderFunc func(ctx context.Context) (map[string]string, error)

// HeaderProvider derives the Authorization header from the current session on every call.
type HeaderProvider struct {
	sessions ports.SessionProvider
}

func NewHeaderProvider(sessions ports.SessionProvider) *HeaderProvider {
	return &HeaderProvider{sessions: sessions}
}

// Headers fetches the current session and returns {"Authorization": <identity token>}.
// A session without an identity token yields an empty value. Session fetch errors are
// returned wrapped, never swallowed.
func (p *HeaderProvider) Headers(ctx context.Context) (map[string]string, error) {
	if p == nil || p.sessions == nil {
		return nil, errNilSessionProvider
	}

	session, err := p.sessions.FetchSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch current session: %w", err)
	}

	return map[string]string{
		AuthorizationHeader: AuthorizationValue(session),
	}, nil
}

// Func exposes Headers as a HeaderFunc for the library options.
func (p *HeaderProvider) Func() HeaderFunc {
	return p.Headers
}

// AuthorizationValue applies the fallback rule: the identity token when present,
// EmptyAuthorizationFallback otherwise.
func AuthorizationValue(session domain.Session) string {
	token, ok := session.IdentityToken()
	if !ok {
		return EmptyAuthorizationFallback
	}
	return token
}
