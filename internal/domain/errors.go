package domain

import "errors"

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrNoCurrentProfile   = errors.New("no current profile")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrInvalidOutputs     = errors.New("invalid amplify outputs")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrChallengeRequired  = errors.New("authentication challenge required")
	ErrRefreshRejected    = errors.New("refresh token rejected")
)
