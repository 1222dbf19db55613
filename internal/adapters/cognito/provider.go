package cognito

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/go-logr/logr"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
)

var _ ports.IdentityProvider = (*Provider)(nil)

// Provider authenticates against one user pool app client.
type Provider struct {
	api      API
	clientID string
	log      logr.Logger
}

func New(api API, clientID string, log logr.Logger) *Provider {
	return &Provider{api: api, clientID: clientID, log: log.WithName("cognito")}
}

func (p *Provider) SignIn(ctx context.Context, username, password string) (domain.Tokens, error) {
	if username == "" || password == "" {
		return domain.Tokens{}, fmt.Errorf("%w: username and password are required", domain.ErrInvalidCredentials)
	}

	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"USERNAME": username,
			"PASSWORD": password,
		},
	})
	if err != nil {
		return domain.Tokens{}, mapError(err, domain.ErrInvalidCredentials)
	}

	return p.tokens(out)
}

// Refresh exchanges a refresh token. The result carries no refresh token; callers keep
// the one they sent.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domain.Tokens, error) {
	if refreshToken == "" {
		return domain.Tokens{}, fmt.Errorf("%w: refresh token is empty", domain.ErrRefreshRejected)
	}

	out, err := p.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeRefreshTokenAuth,
		ClientId: aws.String(p.clientID),
		AuthParameters: map[string]string{
			"REFRESH_TOKEN": refreshToken,
		},
	})
	if err != nil {
		return domain.Tokens{}, mapError(err, domain.ErrRefreshRejected)
	}

	return p.tokens(out)
}

func (p *Provider) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	_, err := p.api.RevokeToken(ctx, &cip.RevokeTokenInput{
		ClientId: aws.String(p.clientID),
		Token:    aws.String(refreshToken),
	})
	if err != nil {
		return fmt.Errorf("revoke token: %w", mapError(err, domain.ErrRefreshRejected))
	}

	p.log.V(1).Info("refresh token revoked")
	return nil
}

func (p *Provider) tokens(out *cip.InitiateAuthOutput) (domain.Tokens, error) {
	if out == nil {
		return domain.Tokens{}, errors.New("initiate auth: empty response")
	}
	if out.ChallengeName != "" {
		p.log.Info("user pool requested an authentication challenge", "challenge", string(out.ChallengeName))
		return domain.Tokens{}, fmt.Errorf("%w: %s", domain.ErrChallengeRequired, out.ChallengeName)
	}

	result := out.AuthenticationResult
	if result == nil || aws.ToString(result.AccessToken) == "" {
		return domain.Tokens{}, errors.New("initiate auth: response carries no tokens")
	}

	return domain.Tokens{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
		TokenType:    aws.ToString(result.TokenType),
		ExpiresIn:    int64(result.ExpiresIn),
	}, nil
}
