package cognito

import (
	"context"

	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// API is the subset of the user pools API used for public client authentication.
type API interface {
	InitiateAuth(
		ctx context.Context,
		params *cip.InitiateAuthInput,
		optFns ...func(*cip.Options),
	) (*cip.InitiateAuthOutput, error)

	RevokeToken(
		ctx context.Context,
		params *cip.RevokeTokenInput,
		optFns ...func(*cip.Options),
	) (*cip.RevokeTokenOutput, error)
}
