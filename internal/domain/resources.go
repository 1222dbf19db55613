package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// ResourcesConfig is the parsed form of the deployment outputs handed to the configurator.
type ResourcesConfig struct {
	Auth   *AuthConfig                `json:"Auth,omitempty"`
	API    *APIConfig                 `json:"API,omitempty"`
	Custom map[string]json.RawMessage `json:"custom,omitempty"`
}

type AuthConfig struct {
	Cognito *CognitoConfig `json:"Cognito,omitempty"`
}

type CognitoConfig struct {
	UserPoolID        string          `json:"userPoolId"`
	UserPoolClientID  string          `json:"userPoolClientId"`
	IdentityPoolID    string          `json:"identityPoolId,omitempty"`
	Region            string          `json:"region"`
	AllowGuestAccess  bool            `json:"allowGuestAccess"`
	MFA               string          `json:"mfa,omitempty"`
	UserAttributes    []string        `json:"userAttributes,omitempty"`
	LoginWithEmail    bool            `json:"loginWithEmail"`
	LoginWithPhone    bool            `json:"loginWithPhone"`
	LoginWithUsername bool            `json:"loginWithUsername"`
	PasswordPolicy    *PasswordPolicy `json:"passwordFormat,omitempty"`
	OAuth             *OAuthConfig    `json:"oauth,omitempty"`
}

type OAuthConfig struct {
	Domain            string   `json:"domain"`
	Scopes            []string `json:"scopes,omitempty"`
	RedirectSignIn    []string `json:"redirectSignIn,omitempty"`
	RedirectSignOut   []string `json:"redirectSignOut,omitempty"`
	ResponseType      string   `json:"responseType,omitempty"`
	IdentityProviders []string `json:"providers,omitempty"`
}

type APIConfig struct {
	REST map[string]RESTEndpoint `json:"REST,omitempty"`
}

// RESTEndpoint is the endpoint/region pair registered under an API name.
type RESTEndpoint struct {
	Endpoint string `json:"endpoint"`
	Region   string `json:"region,omitempty"`
}

// APIDescriptor identifies the REST API declared by the backend deployment.
type APIDescriptor struct {
	Name    string `json:"name"`
	Region  string `json:"region"`
	BaseURL string `json:"url"`
}

func (d APIDescriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: api name is required", ErrInvalidOutputs)
	}
	if d.BaseURL == "" {
		return fmt.Errorf("%w: api url is required", ErrInvalidOutputs)
	}

	parsed, err := url.Parse(d.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: parse api url: %v", ErrInvalidOutputs, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: api url must use http or https", ErrInvalidOutputs)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: api url host is required", ErrInvalidOutputs)
	}

	return nil
}

func (d APIDescriptor) Endpoint() RESTEndpoint {
	return RESTEndpoint{Endpoint: strings.TrimRight(d.BaseURL, "/"), Region: d.Region}
}

// Clone returns a deep copy; the copy shares no maps, slices or pointers with r.
func (r ResourcesConfig) Clone() ResourcesConfig {
	out := ResourcesConfig{Custom: maps.Clone(r.Custom)}
	for key, raw := range out.Custom {
		out.Custom[key] = slices.Clone(raw)
	}
	if r.API != nil {
		out.API = &APIConfig{REST: maps.Clone(r.API.REST)}
	}
	if r.Auth != nil {
		out.Auth = &AuthConfig{}
		if r.Auth.Cognito != nil {
			cognito := *r.Auth.Cognito
			cognito.UserAttributes = slices.Clone(cognito.UserAttributes)
			if cognito.PasswordPolicy != nil {
				policy := *cognito.PasswordPolicy
				cognito.PasswordPolicy = &policy
			}
			if cognito.OAuth != nil {
				oauth := *cognito.OAuth
				oauth.Scopes = slices.Clone(oauth.Scopes)
				oauth.RedirectSignIn = slices.Clone(oauth.RedirectSignIn)
				oauth.RedirectSignOut = slices.Clone(oauth.RedirectSignOut)
				oauth.IdentityProviders = slices.Clone(oauth.IdentityProviders)
				cognito.OAuth = &oauth
			}
			out.Auth.Cognito = &cognito
		}
	}
	return out
}
