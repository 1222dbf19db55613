package ports

import (
	"context"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

// IdentityProvider talks to the user pool that issues session tokens.
type IdentityProvider interface {
	SignIn(ctx context.Context, username, password string) (domain.Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (domain.Tokens, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// IdentityProviderFactory builds an identity provider bound to one user pool client.
type IdentityProviderFactory func(ctx context.Context, cognito domain.CognitoConfig) (IdentityProvider, error)
