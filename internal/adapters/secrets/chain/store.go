package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	filestore "github.com/bnema/amplify-rest-cli/internal/adapters/secrets/file"
	passstore "github.com/bnema/amplify-rest-cli/internal/adapters/secrets/pass"
	"github.com/bnema/amplify-rest-cli/internal/ports"
)

// Store writes to the primary backend and falls back to the secondary one when the
// primary is unusable. Reads consult both, so secrets written during a primary outage
// stay reachable.
type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
	log      logr.Logger
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore, log logr.Logger) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback, log: log.WithName("secrets")}, nil
}

func NewPassFirstWithFileFallback(fileRoot string, log logr.Logger) (*Store, error) {
	return NewStore(passstore.NewStore(), filestore.NewStore(fileRoot), log)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	s.log.V(1).Info("primary secret backend failed, writing to fallback", "key", key, "error", err.Error())

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary backend put failed: %w; fallback backend put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		s.log.V(1).Info("secret served by fallback backend", "key", key)
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary backend get failed: %w; fallback backend get failed: %w", err, fallbackErr)
}

// Delete removes the secret from both backends.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}
	if errors.Is(err, passstore.ErrUnavailable) {
		err = nil
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	if err == nil && fallbackErr == nil {
		return nil
	}
	if err == nil {
		return fmt.Errorf("fallback backend delete failed: %w", fallbackErr)
	}
	if fallbackErr == nil {
		return fmt.Errorf("primary backend delete failed: %w", err)
	}

	return fmt.Errorf("primary backend delete failed: %w; fallback backend delete failed: %w", err, fallbackErr)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
