package application

import (
	"errors"
	"fmt"
	"sort"

	"github.com/bnema/amplify-rest-cli/internal/domain"
	"github.com/samber/lo"
)

var ErrUnknownAPI = errors.New("unknown api name")

type RESTOptions struct {
	Headers HeaderFunc
}

type LibraryOptions struct {
	REST RESTOptions
}

// Config is built once at startup and handed to every component issuing REST calls.
type Config struct {
	Resources domain.ResourcesConfig
	API       domain.APIDescriptor
	Options   LibraryOptions
}

// Configure registers the descriptor's REST endpoint under its API name on top of the
// parsed resources. The input resources are left untouched.
func Configure(resources domain.ResourcesConfig, descriptor domain.APIDescriptor, options LibraryOptions) (*Config, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, fmt.Errorf("configure api: %w", err)
	}

	merged := resources.Clone()
	existing := map[string]domain.RESTEndpoint{}
	if merged.API != nil {
		existing = merged.API.REST
	}
	merged.API = &domain.APIConfig{
		REST: lo.Assign(existing, map[string]domain.RESTEndpoint{
			descriptor.Name: descriptor.Endpoint(),
		}),
	}

	return &Config{
		Resources: merged,
		API:       descriptor,
		Options:   options,
	}, nil
}

// Endpoint resolves a REST API name. An empty name resolves to the configured API.
func (c *Config) Endpoint(name string) (domain.RESTEndpoint, error) {
	if name == "" {
		name = c.API.Name
	}
	if c.Resources.API != nil {
		if endpoint, ok := c.Resources.API.REST[name]; ok {
			return endpoint, nil
		}
	}
	return domain.RESTEndpoint{}, fmt.Errorf("%w %q", ErrUnknownAPI, name)
}

func (c *Config) APINames() []string {
	if c.Resources.API == nil {
		return nil
	}
	names := lo.Keys(c.Resources.API.REST)
	sort.Strings(names)
	return names
}
