package cognito

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

var challengeErrorCodes = map[string]bool{
	"UserNotConfirmedException":      true,
	"PasswordResetRequiredException": true,
	"MFAMethodNotFoundException":     true,
}

// mapError translates user pool API error codes into domain errors. notAuthorized is
// the sentinel used for NotAuthorizedException, which means bad credentials on sign-in
// and a revoked or expired token on refresh.
func mapError(err error, notAuthorized error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("call user pool: %w", err)
	}

	code := apiErr.ErrorCode()
	switch {
	case code == "NotAuthorizedException":
		return fmt.Errorf("%w: %w", notAuthorized, err)
	case code == "UserNotFoundException" && errors.Is(notAuthorized, domain.ErrInvalidCredentials):
		return fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, err)
	case challengeErrorCodes[code]:
		return fmt.Errorf("%w: %w", domain.ErrChallengeRequired, err)
	default:
		return fmt.Errorf("user pool %s: %w", code, err)
	}
}
