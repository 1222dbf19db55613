package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
	"github.com/go-logr/logr"
)

// Service manages profiles and the session tokens stored for them.
type Service struct {
	repo       ports.ProfileRepository
	store      ports.SecretStore
	outputs    ports.OutputsSource
	identities ports.IdentityProviderFactory
	clock      ports.Clock
	log        logr.Logger
}

func NewService(
	repo ports.ProfileRepository,
	store ports.SecretStore,
	outputs ports.OutputsSource,
	identities ports.IdentityProviderFactory,
	clock ports.Clock,
	log logr.Logger,
) *Service {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Service{
		repo:       repo,
		store:      store,
		outputs:    outputs,
		identities: identities,
		clock:      clock,
		log:        log.WithName("profiles"),
	}
}

// AddProfile validates the outputs file and stores the profile. The first profile
// becomes the current one.
func (s *Service) AddProfile(ctx context.Context, profile domain.Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("validate profile: %w", err)
	}

	absPath, err := filepath.Abs(profile.OutputsPath)
	if err != nil {
		return fmt.Errorf("resolve outputs path: %w", err)
	}
	profile.OutputsPath = absPath

	outputs, err := s.outputs.Load(ctx, profile.OutputsPath)
	if err != nil {
		return fmt.Errorf("load outputs: %w", err)
	}
	if _, err := outputs.Descriptor(); err != nil {
		return err
	}

	existing, err := s.repo.GetByName(ctx, profile.Name)
	switch {
	case err == nil:
		profile.Username = existing.Username
		profile.SecretRef = existing.SecretRef
		profile.SignedInAt = existing.SignedInAt
	case !errors.Is(err, domain.ErrProfileNotFound):
		return fmt.Errorf("get profile by name: %w", err)
	}

	if err := s.repo.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	current, err := s.repo.Current(ctx)
	if err != nil {
		return fmt.Errorf("resolve current profile: %w", err)
	}
	if current == "" {
		if err := s.repo.SetCurrent(ctx, profile.Name); err != nil {
			return fmt.Errorf("set current profile: %w", err)
		}
	}

	return nil
}

func (s *Service) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

func (s *Service) UseProfile(ctx context.Context, name domain.ProfileName) error {
	if _, err := s.repo.GetByName(ctx, name); err != nil {
		return fmt.Errorf("get profile by name: %w", err)
	}

	if err := s.repo.SetCurrent(ctx, name); err != nil {
		return fmt.Errorf("set current profile: %w", err)
	}

	return nil
}

// RemoveProfile signs the profile out locally and deletes it.
func (s *Service) RemoveProfile(ctx context.Context, name domain.ProfileName) error {
	profile, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("get profile by name: %w", err)
	}

	if profile.SecretRef != "" {
		if err := s.store.Delete(ctx, profile.SecretRef); err != nil {
			return fmt.Errorf("delete session secret: %w", err)
		}
	}

	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	current, err := s.repo.Current(ctx)
	if err != nil {
		return fmt.Errorf("resolve current profile: %w", err)
	}
	if current == name {
		if err := s.repo.SetCurrent(ctx, ""); err != nil {
			return fmt.Errorf("clear current profile: %w", err)
		}
	}

	return nil
}

func (s *Service) ResolveProfile(ctx context.Context, name domain.ProfileName) (domain.Profile, error) {
	return resolveProfile(ctx, s.repo, name)
}

// LoadOutputs reads the deployment outputs referenced by the profile.
func (s *Service) LoadOutputs(ctx context.Context, profile domain.Profile) (domain.Outputs, error) {
	outputs, err := s.outputs.Load(ctx, profile.OutputsPath)
	if err != nil {
		return domain.Outputs{}, fmt.Errorf("load outputs for profile %s: %w", profile.Name, err)
	}
	return outputs, nil
}

// CognitoConfig returns the user pool configuration declared by the profile's outputs.
func (s *Service) CognitoConfig(ctx context.Context, profile domain.Profile) (domain.CognitoConfig, error) {
	return loadCognitoConfig(ctx, s.outputs, profile)
}

// SignIn authenticates with username and password against the profile's user pool and
// stores the issued tokens.
func (s *Service) SignIn(ctx context.Context, name domain.ProfileName, username, password string) error {
	profile, err := s.ResolveProfile(ctx, name)
	if err != nil {
		return err
	}

	cognito, err := loadCognitoConfig(ctx, s.outputs, profile)
	if err != nil {
		return err
	}

	identity, err := s.identities(ctx, cognito)
	if err != nil {
		return fmt.Errorf("build identity provider: %w", err)
	}

	tokens, err := identity.SignIn(ctx, username, password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	return s.SaveSession(ctx, profile.Name, username, tokens.WithCalculatedExpiry(s.clock.Now()))
}

// SaveSession stores tokens under the profile's session key. A previously referenced
// secret under another key is deleted once the profile points at the new one; failures
// roll the profile and the new secret back.
func (s *Service) SaveSession(ctx context.Context, name domain.ProfileName, username string, tokens domain.Tokens) error {
	profile, err := s.ResolveProfile(ctx, name)
	if err != nil {
		return err
	}
	originalProfile := profile

	secretValue, err := EncodeTokens(tokens)
	if err != nil {
		return err
	}

	secretKey := profile.SessionSecretKey()
	if err := s.store.Put(ctx, secretKey, secretValue); err != nil {
		return fmt.Errorf("store session secret: %w", err)
	}

	profile.SecretRef = secretKey
	profile.SignedInAt = s.clock.Now().UTC()
	if username != "" {
		profile.Username = username
	} else if claims := domain.ParseIdentityClaims(tokens.IDToken); claims.DisplayName() != "" {
		profile.Username = claims.DisplayName()
	}

	if err := s.repo.Save(ctx, profile); err != nil {
		if rollbackErr := s.store.Delete(ctx, secretKey); rollbackErr != nil {
			return fmt.Errorf("save profile session and rollback stored secret: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("save profile session: %w", err)
	}

	previous := originalProfile.SecretRef
	if previous == "" || previous == secretKey {
		return nil
	}

	if err := s.store.Delete(ctx, previous); err != nil {
		var rollbackErr error
		if restoreErr := s.repo.Save(ctx, originalProfile); restoreErr != nil {
			rollbackErr = errors.Join(rollbackErr, restoreErr)
		}
		if newSecretDeleteErr := s.store.Delete(ctx, secretKey); newSecretDeleteErr != nil {
			rollbackErr = errors.Join(rollbackErr, newSecretDeleteErr)
		}
		if rollbackErr != nil {
			return fmt.Errorf("delete previous session secret and rollback session update: %w", errors.Join(err, rollbackErr))
		}
		return fmt.Errorf("delete previous session secret: %w", err)
	}

	return nil
}

// SignOut revokes the refresh token when possible and removes the local session.
// Revocation failures are logged, not returned.
func (s *Service) SignOut(ctx context.Context, name domain.ProfileName) error {
	profile, err := s.ResolveProfile(ctx, name)
	if err != nil {
		return err
	}
	originalProfile := profile

	if profile.SecretRef == "" {
		return nil
	}

	s.revoke(ctx, profile)

	profile.SecretRef = ""
	profile.SignedInAt = time.Time{}
	if err := s.repo.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile session: %w", err)
	}

	if err := s.store.Delete(ctx, originalProfile.SecretRef); err != nil {
		if restoreErr := s.repo.Save(ctx, originalProfile); restoreErr != nil {
			return fmt.Errorf("delete session secret and restore profile: %w", errors.Join(err, restoreErr))
		}
		return fmt.Errorf("delete session secret: %w", err)
	}

	return nil
}

func (s *Service) revoke(ctx context.Context, profile domain.Profile) {
	secretValue, err := s.store.Get(ctx, profile.SecretRef)
	if err != nil {
		s.log.Info("skip token revocation, session secret unreadable", "profile", profile.Name, "error", err.Error())
		return
	}
	tokens, err := DecodeTokens(secretValue)
	if err != nil || tokens.RefreshToken == "" {
		return
	}

	cognito, err := loadCognitoConfig(ctx, s.outputs, profile)
	if err != nil {
		s.log.Info("skip token revocation", "profile", profile.Name, "error", err.Error())
		return
	}
	identity, err := s.identities(ctx, cognito)
	if err != nil {
		s.log.Info("skip token revocation", "profile", profile.Name, "error", err.Error())
		return
	}
	if err := identity.Revoke(ctx, tokens.RefreshToken); err != nil {
		s.log.Info("token revocation failed", "profile", profile.Name, "error", err.Error())
	}
}

func (s *Service) GetStatus(ctx context.Context, name domain.ProfileName) (Status, error) {
	profile, err := s.ResolveProfile(ctx, name)
	if err != nil {
		return Status{}, err
	}

	current, err := s.repo.Current(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("resolve current profile: %w", err)
	}

	return s.statusFromProfile(ctx, profile, current), nil
}

func (s *Service) GetStatusAll(ctx context.Context) ([]Status, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	current, err := s.repo.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve current profile: %w", err)
	}

	statuses := make([]Status, 0, len(profiles))
	for _, profile := range profiles {
		statuses = append(statuses, s.statusFromProfile(ctx, profile, current))
	}

	return statuses, nil
}

func (s *Service) statusFromProfile(ctx context.Context, profile domain.Profile, current domain.ProfileName) Status {
	status := Status{
		Profile: profile,
		Current: profile.Name == current,
	}

	outputs, err := s.outputs.Load(ctx, profile.OutputsPath)
	if err != nil {
		status.Problems = append(status.Problems, err.Error())
	} else if descriptor, err := outputs.Descriptor(); err != nil {
		status.Problems = append(status.Problems, err.Error())
	} else {
		status.API = &descriptor
	}

	if profile.SecretRef == "" {
		return status
	}

	secretValue, err := s.store.Get(ctx, profile.SecretRef)
	if err != nil {
		status.Problems = append(status.Problems, fmt.Sprintf("load session secret: %v", err))
		return status
	}
	tokens, err := DecodeTokens(secretValue)
	if err != nil {
		status.Problems = append(status.Problems, err.Error())
		return status
	}

	claims := domain.ParseIdentityClaims(tokens.IDToken)
	issuedAt, expiresAt := claims.Lifetime()
	if expiresAt.IsZero() {
		expiresAt = tokens.Expiry()
	}
	status.Session = &StatusSession{
		Identity:        claims.DisplayName(),
		HasIDToken:      tokens.IDToken != "",
		HasRefreshToken: tokens.RefreshToken != "",
		IssuedAt:        issuedAt,
		ExpiresAt:       expiresAt,
	}

	return status
}
