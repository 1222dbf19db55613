package cognito

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

type fakeAPI struct {
	initiateInputs []*cip.InitiateAuthInput
	initiateOut    *cip.InitiateAuthOutput
	initiateErr    error
	revokeInputs   []*cip.RevokeTokenInput
	revokeErr      error
}

func (f *fakeAPI) InitiateAuth(_ context.Context, params *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.initiateInputs = append(f.initiateInputs, params)
	return f.initiateOut, f.initiateErr
}

func (f *fakeAPI) RevokeToken(_ context.Context, params *cip.RevokeTokenInput, _ ...func(*cip.Options)) (*cip.RevokeTokenOutput, error) {
	f.revokeInputs = append(f.revokeInputs, params)
	if f.revokeErr != nil {
		return nil, f.revokeErr
	}
	return &cip.RevokeTokenOutput{}, nil
}

func authResult() *cip.InitiateAuthOutput {
	return &cip.InitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			AccessToken:  aws.String("access"),
			IdToken:      aws.String("id"),
			RefreshToken: aws.String("refresh"),
			TokenType:    aws.String("Bearer"),
			ExpiresIn:    3600,
		},
	}
}

func TestProviderSignIn(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{initiateOut: authResult()}
	tokens, err := New(api, "client-1", logr.Discard()).SignIn(context.Background(), "alice", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, domain.Tokens{
		AccessToken:  "access",
		IDToken:      "id",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}, tokens)

	require.Len(t, api.initiateInputs, 1)
	input := api.initiateInputs[0]
	assert.Equal(t, types.AuthFlowTypeUserPasswordAuth, input.AuthFlow)
	assert.Equal(t, "client-1", aws.ToString(input.ClientId))
	assert.Equal(t, map[string]string{"USERNAME": "alice", "PASSWORD": "hunter2"}, input.AuthParameters)
}

func TestProviderSignInRequiresCredentials(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	_, err := New(api, "client-1", logr.Discard()).SignIn(context.Background(), "alice", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, api.initiateInputs)
}

func TestProviderSignInChallenge(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{initiateOut: &cip.InitiateAuthOutput{ChallengeName: types.ChallengeNameTypeNewPasswordRequired}}
	_, err := New(api, "client-1", logr.Discard()).SignIn(context.Background(), "alice", "pw")
	assert.ErrorIs(t, err, domain.ErrChallengeRequired)
	assert.Contains(t, err.Error(), "NEW_PASSWORD_REQUIRED")
}

func TestProviderSignInMapsAPIErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "not authorized", err: &types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}, want: domain.ErrInvalidCredentials},
		{name: "unknown user", err: &types.UserNotFoundException{Message: aws.String("User does not exist.")}, want: domain.ErrInvalidCredentials},
		{name: "unconfirmed", err: &types.UserNotConfirmedException{Message: aws.String("User is not confirmed.")}, want: domain.ErrChallengeRequired},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			api := &fakeAPI{initiateErr: tc.err}
			_, err := New(api, "client-1", logr.Discard()).SignIn(context.Background(), "alice", "pw")
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestProviderRefresh(t *testing.T) {
	t.Parallel()

	out := authResult()
	out.AuthenticationResult.RefreshToken = nil
	api := &fakeAPI{initiateOut: out}

	tokens, err := New(api, "client-1", logr.Discard()).Refresh(context.Background(), "refresh")
	require.NoError(t, err)
	assert.Equal(t, "access", tokens.AccessToken)
	assert.Empty(t, tokens.RefreshToken)

	require.Len(t, api.initiateInputs, 1)
	assert.Equal(t, types.AuthFlowTypeRefreshTokenAuth, api.initiateInputs[0].AuthFlow)
	assert.Equal(t, map[string]string{"REFRESH_TOKEN": "refresh"}, api.initiateInputs[0].AuthParameters)
}

func TestProviderRefreshRejected(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{initiateErr: &types.NotAuthorizedException{Message: aws.String("Refresh Token has been revoked")}}
	_, err := New(api, "client-1", logr.Discard()).Refresh(context.Background(), "refresh")
	assert.ErrorIs(t, err, domain.ErrRefreshRejected)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestProviderRefreshPassesThroughTransportErrors(t *testing.T) {
	t.Parallel()

	netErr := errors.New("dial tcp: connection refused")
	api := &fakeAPI{initiateErr: netErr}
	_, err := New(api, "client-1", logr.Discard()).Refresh(context.Background(), "refresh")
	assert.ErrorIs(t, err, netErr)
	assert.NotErrorIs(t, err, domain.ErrRefreshRejected)
}

func TestProviderRevoke(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	provider := New(api, "client-1", logr.Discard())

	require.NoError(t, provider.Revoke(context.Background(), ""))
	assert.Empty(t, api.revokeInputs)

	require.NoError(t, provider.Revoke(context.Background(), "refresh"))
	require.Len(t, api.revokeInputs, 1)
	assert.Equal(t, "refresh", aws.ToString(api.revokeInputs[0].Token))
	assert.Equal(t, "client-1", aws.ToString(api.revokeInputs[0].ClientId))

	api.revokeErr = &types.UnauthorizedException{Message: aws.String("nope")}
	assert.Error(t, provider.Revoke(context.Background(), "refresh"))
}
