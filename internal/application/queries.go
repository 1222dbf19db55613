package application

import (
	"time"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

type StatusSession struct {
	Identity        string
	HasIDToken      bool
	HasRefreshToken bool
	IssuedAt        time.Time
	ExpiresAt       time.Time
}

type Status struct {
	Profile  domain.Profile
	Current  bool
	API      *domain.APIDescriptor
	Session  *StatusSession
	Problems []string
}

func (s Status) SignedIn() bool {
	return s.Session != nil
}
