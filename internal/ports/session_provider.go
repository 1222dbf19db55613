package ports

import (
	"context"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

// SessionProvider returns the current authentication session. A signed-out user is a
// session without tokens, not an error.
type SessionProvider interface {
	FetchSession(ctx context.Context) (domain.Session, error)
}

// SessionProviderFunc adapts a plain function to SessionProvider.
type SessionProviderFunc func(ctx context.Context) (domain.Session, error)

func (f SessionProviderFunc) FetchSession(ctx context.Context) (domain.Session, error) {
	return f(ctx)
}
