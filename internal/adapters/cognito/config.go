package cognito

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-logr/logr"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
)

type Options struct {
	// Endpoint overrides the regional user pools endpoint.
	Endpoint string
	// RetryMaxAttempts caps SDK retries. Zero keeps the SDK default.
	RetryMaxAttempts int
	Logger           logr.Logger
}

// BuildAWSConfig loads an SDK config for region. Public app clients authenticate
// without AWS credentials, so requests are left unsigned.
func BuildAWSConfig(ctx context.Context, region string, opts Options) (aws.Config, error) {
	region = domain.NormalizeRegion(region)
	if region == "" {
		return aws.Config{}, fmt.Errorf("user pool region is required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithCredentialsProvider(aws.AnonymousCredentials{}),
	}
	if opts.RetryMaxAttempts > 0 {
		loadOpts = append(loadOpts, config.WithRetryMaxAttempts(opts.RetryMaxAttempts))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}

	return awsCfg, nil
}

// NewFactory returns an identity provider factory bound to the SDK client.
func NewFactory(opts Options) ports.IdentityProviderFactory {
	return func(ctx context.Context, pool domain.CognitoConfig) (ports.IdentityProvider, error) {
		if strings.TrimSpace(pool.UserPoolClientID) == "" {
			return nil, fmt.Errorf("%w: user pool client id is required", domain.ErrInvalidOutputs)
		}

		awsCfg, err := BuildAWSConfig(ctx, pool.Region, opts)
		if err != nil {
			return nil, err
		}

		client := cip.NewFromConfig(awsCfg, func(o *cip.Options) {
			if opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Endpoint)
			}
		})

		return New(client, pool.UserPoolClientID, opts.Logger), nil
	}
}
