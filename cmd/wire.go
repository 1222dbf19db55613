package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/viper"

	"github.com/bnema/amplify-rest-cli/internal/adapters/cognito"
	"github.com/bnema/amplify-rest-cli/internal/adapters/outputs"
	statusadapter "github.com/bnema/amplify-rest-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/amplify-rest-cli/internal/adapters/repo/toml"
	"github.com/bnema/amplify-rest-cli/internal/adapters/rest"
	chainstore "github.com/bnema/amplify-rest-cli/internal/adapters/secrets/chain"
	"github.com/bnema/amplify-rest-cli/internal/application"
	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/bnema/amplify-rest-cli/internal/logging"
	"github.com/bnema/amplify-rest-cli/internal/ports"
	"github.com/bnema/amplify-rest-cli/internal/version"
)

const (
	envLogLevel        = "AMPREST_LOG_LEVEL"
	envListen          = "AMPREST_LISTEN"
	envCognitoEndpoint = "AMPREST_COGNITO_ENDPOINT"
	envSecretsDir      = "AMPREST_SECRETS_DIR"
	envHTTPRetries     = "AMPREST_HTTP_RETRIES"
)

type rootOptions struct {
	profile string
	verbose bool
}

type app struct {
	log            logr.Logger
	syncLog        func() error
	profile        domain.ProfileName
	repo           *tomlrepo.Repository
	secretsDir     string
	service        *application.Service
	sessions       *application.SessionService
	statusRenderer func([]application.Status, statusadapter.RenderOptions) string
	browserLogin   browserLoginConfig
	rest           restConfig
	now            func() time.Time
}

type browserLoginConfig struct {
	ListenAddr string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type restConfig struct {
	RetryMax int
}

func wireApp(opts rootOptions) (*app, error) {
	log, syncLog, err := logging.New(logging.Options{
		Level:   os.Getenv(envLogLevel),
		Verbose: opts.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	secretsDir := envOrDefault(envSecretsDir, filepath.Join(homeDir, tomlrepo.ConfigDir, "secrets"))
	secretStore, err := chainstore.NewPassFirstWithFileFallback(secretsDir, log)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	retries, err := intFromEnv(envHTTPRetries, rest.DefaultRetryMax)
	if err != nil {
		return nil, err
	}

	source := outputs.Loader{}
	identities := cognito.NewFactory(cognito.Options{
		Endpoint: os.Getenv(envCognitoEndpoint),
		Logger:   log,
	})
	clock := ports.SystemClock{}

	sessions := application.NewSessionService(repo, secretStore, source, identities, clock, log)

	return &app{
		log:            log,
		syncLog:        syncLog,
		profile:        domain.ProfileName(opts.profile),
		repo:           repo,
		secretsDir:     secretsDir,
		service:        application.NewService(repo, secretStore, source, identities, clock, log),
		sessions:       sessions.ForProfile(domain.ProfileName(opts.profile)),
		statusRenderer: statusadapter.Render,
		browserLogin: browserLoginConfig{
			ListenAddr: os.Getenv(envListen),
			Timeout:    5 * time.Minute,
			HTTPClient: http.DefaultClient,
		},
		rest: restConfig{RetryMax: retries},
		now:  clock.Now,
	}, nil
}

// configure builds the REST configuration for the selected profile. It is the only
// place Configure runs; every REST call receives the returned Config.
func (a *app) configure(ctx context.Context) (*application.Config, domain.Profile, error) {
	profile, err := a.service.ResolveProfile(ctx, a.profile)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	loaded, err := a.service.LoadOutputs(ctx, profile)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	descriptor, err := loaded.Descriptor()
	if err != nil {
		return nil, domain.Profile{}, err
	}

	headers := application.NewHeaderProvider(a.sessions.ForProfile(profile.Name))
	config, err := application.Configure(loaded.Resources(), descriptor, application.LibraryOptions{
		REST: application.RESTOptions{Headers: headers.Func()},
	})
	if err != nil {
		return nil, domain.Profile{}, err
	}

	return config, profile, nil
}

func (a *app) restClient(config *application.Config) (*rest.Client, error) {
	return rest.New(config, rest.Options{
		RetryMax:  a.rest.RetryMax,
		UserAgent: version.UserAgent(),
		Logger:    a.log,
	})
}

func (a *app) close() {
	if a == nil || a.syncLog == nil {
		return
	}
	_ = a.syncLog()
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value == 0 {
		// rest.Options treats zero as "default"
		return -1, nil
	}
	return value, nil
}
