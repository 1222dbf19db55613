package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/ports"
	"github.com/go-logr/logr"
	"golang.org/x/sync/singleflight"
)

const DefaultRefreshSkew = 2 * time.Minute

// SessionService is the "fetch current session" accessor. It reads the stored tokens
// of a profile and refreshes them through the identity provider when they are about
// to expire.
type SessionService struct {
	profiles    ports.ProfileRepository
	store       ports.SecretStore
	outputs     ports.OutputsSource
	identities  ports.IdentityProviderFactory
	clock       ports.Clock
	log         logr.Logger
	profile     domain.ProfileName
	refreshSkew time.Duration
	refreshes   *singleflight.Group
}

var _ ports.SessionProvider = (*SessionService)(nil)

func NewSessionService(
	profiles ports.ProfileRepository,
	store ports.SecretStore,
	outputs ports.OutputsSource,
	identities ports.IdentityProviderFactory,
	clock ports.Clock,
	log logr.Logger,
) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &SessionService{
		profiles:    profiles,
		store:       store,
		outputs:     outputs,
		identities:  identities,
		clock:       clock,
		log:         log.WithName("session"),
		refreshSkew: DefaultRefreshSkew,
		refreshes:   &singleflight.Group{},
	}
}

// ForProfile returns a provider pinned to name. An empty name follows the current profile.
func (s *SessionService) ForProfile(name domain.ProfileName) *SessionService {
	clone := *s
	clone.profile = name
	return &clone
}

func (s *SessionService) FetchSession(ctx context.Context) (domain.Session, error) {
	profile, err := resolveProfile(ctx, s.profiles, s.profile)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{Profile: profile.Name}
	if profile.SecretRef == "" {
		return session, nil
	}

	secretValue, err := s.store.Get(ctx, profile.SecretRef)
	if err != nil {
		return domain.Session{}, fmt.Errorf("profile %s: load session secret: %w", profile.Name, err)
	}

	tokens, err := DecodeTokens(secretValue)
	if err != nil {
		return domain.Session{}, fmt.Errorf("profile %s: %w", profile.Name, err)
	}

	now := s.clock.Now()
	if !tokens.ExpiringWithin(now, s.refreshSkew) {
		session.Tokens = &tokens
		return session, nil
	}

	if tokens.RefreshToken == "" {
		if tokens.ExpiringWithin(now, 0) {
			s.log.Info("session expired and no refresh token is stored", "profile", profile.Name)
			return session, nil
		}
		session.Tokens = &tokens
		return session, nil
	}

	refreshed, err, _ := s.refreshes.Do(string(profile.Name), func() (any, error) {
		return s.refresh(ctx, profile, tokens)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRefreshRejected) {
			s.log.Error(err, "refresh token rejected, clearing stored session and continuing signed out", "profile", profile.Name)
			if clearErr := s.clear(ctx, profile); clearErr != nil {
				return domain.Session{}, fmt.Errorf("profile %s: clear rejected session: %w", profile.Name, errors.Join(err, clearErr))
			}
			return session, nil
		}
		return domain.Session{}, fmt.Errorf("profile %s: refresh session: %w", profile.Name, err)
	}

	refreshedTokens := refreshed.(domain.Tokens)
	session.Tokens = &refreshedTokens
	return session, nil
}

func (s *SessionService) refresh(ctx context.Context, profile domain.Profile, tokens domain.Tokens) (domain.Tokens, error) {
	cognito, err := loadCognitoConfig(ctx, s.outputs, profile)
	if err != nil {
		return domain.Tokens{}, err
	}

	identity, err := s.identities(ctx, cognito)
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("build identity provider: %w", err)
	}

	fresh, err := identity.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		return domain.Tokens{}, err
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tokens.RefreshToken
	}
	fresh = fresh.WithCalculatedExpiry(s.clock.Now())

	encoded, err := EncodeTokens(fresh)
	if err != nil {
		return domain.Tokens{}, err
	}
	if err := s.store.Put(ctx, profile.SecretRef, encoded); err != nil {
		return domain.Tokens{}, fmt.Errorf("store refreshed session: %w", err)
	}

	s.log.V(1).Info("session refreshed", "profile", profile.Name, "expiresAt", fresh.Expiry())
	return fresh, nil
}

func (s *SessionService) clear(ctx context.Context, profile domain.Profile) error {
	secretRef := profile.SecretRef
	profile.SecretRef = ""
	if err := s.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if err := s.store.Delete(ctx, secretRef); err != nil {
		return fmt.Errorf("delete session secret: %w", err)
	}
	return nil
}

func resolveProfile(ctx context.Context, profiles ports.ProfileRepository, name domain.ProfileName) (domain.Profile, error) {
	if name == "" {
		current, err := profiles.Current(ctx)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("resolve current profile: %w", err)
		}
		if current == "" {
			return domain.Profile{}, domain.ErrNoCurrentProfile
		}
		name = current
	}

	profile, err := profiles.GetByName(ctx, name)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile %s: %w", name, err)
	}

	return profile, nil
}

func loadCognitoConfig(ctx context.Context, outputs ports.OutputsSource, profile domain.Profile) (domain.CognitoConfig, error) {
	loaded, err := outputs.Load(ctx, profile.OutputsPath)
	if err != nil {
		return domain.CognitoConfig{}, fmt.Errorf("load outputs for profile %s: %w", profile.Name, err)
	}

	resources := loaded.Resources()
	if resources.Auth == nil || resources.Auth.Cognito == nil {
		return domain.CognitoConfig{}, fmt.Errorf("%w: profile %s outputs declare no auth section", domain.ErrInvalidOutputs, profile.Name)
	}

	return *resources.Auth.Cognito, nil
}
