package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outputs mirrors the amplify_outputs.json artifact produced by the backend deployment.
type Outputs struct {
	Version string         `json:"version"`
	Auth    *AuthOutputs   `json:"auth,omitempty"`
	Custom  *CustomOutputs `json:"custom,omitempty"`
}

type AuthOutputs struct {
	AWSRegion                        string          `json:"aws_region"`
	UserPoolID                       string          `json:"user_pool_id"`
	UserPoolClientID                 string          `json:"user_pool_client_id"`
	IdentityPoolID                   string          `json:"identity_pool_id,omitempty"`
	UsernameAttributes               []string        `json:"username_attributes,omitempty"`
	StandardRequiredAttributes       []string        `json:"standard_required_attributes,omitempty"`
	UserVerificationTypes            []string        `json:"user_verification_types,omitempty"`
	MFAConfiguration                 string          `json:"mfa_configuration,omitempty"`
	MFAMethods                       []string        `json:"mfa_methods,omitempty"`
	PasswordPolicy                   *PasswordPolicy `json:"password_policy,omitempty"`
	OAuth                            *OAuthOutputs   `json:"oauth,omitempty"`
	UnauthenticatedIdentitiesEnabled bool            `json:"unauthenticated_identities_enabled"`
}

type PasswordPolicy struct {
	MinLength        int  `json:"min_length"`
	RequireLowercase bool `json:"require_lowercase"`
	RequireUppercase bool `json:"require_uppercase"`
	RequireNumbers   bool `json:"require_numbers"`
	RequireSymbols   bool `json:"require_symbols"`
}

type OAuthOutputs struct {
	IdentityProviders  []string `json:"identity_providers,omitempty"`
	Domain             string   `json:"domain"`
	Scopes             []string `json:"scopes,omitempty"`
	RedirectSignInURI  []string `json:"redirect_sign_in_uri,omitempty"`
	RedirectSignOutURI []string `json:"redirect_sign_out_uri,omitempty"`
	ResponseType       string   `json:"response_type,omitempty"`
}

// CustomOutputs holds the custom section. The API fields are typed; every other key
// is kept verbatim in Extra.
type CustomOutputs struct {
	APIName   string
	APIRegion string
	APIURL    string
	Extra     map[string]json.RawMessage
}

const (
	customAPINameKey   = "api_name"
	customAPIRegionKey = "api_region"
	customAPIURLKey    = "api_url"
)

func (c *CustomOutputs) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	extra := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		var target *string
		switch key {
		case customAPINameKey:
			target = &c.APIName
		case customAPIRegionKey:
			target = &c.APIRegion
		case customAPIURLKey:
			target = &c.APIURL
		default:
			extra[key] = value
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return fmt.Errorf("decode custom.%s: %w", key, err)
		}
	}
	c.Extra = extra

	return nil
}

func (c CustomOutputs) MarshalJSON() ([]byte, error) {
	raw := make(map[string]any, len(c.Extra)+3)
	for key, value := range c.Extra {
		raw[key] = value
	}
	if c.APIName != "" {
		raw[customAPINameKey] = c.APIName
	}
	if c.APIRegion != "" {
		raw[customAPIRegionKey] = c.APIRegion
	}
	if c.APIURL != "" {
		raw[customAPIURLKey] = c.APIURL
	}
	return json.Marshal(raw)
}

// Descriptor returns the REST API descriptor declared in the custom outputs.
func (o Outputs) Descriptor() (APIDescriptor, error) {
	if o.Custom == nil {
		return APIDescriptor{}, fmt.Errorf("%w: custom section is missing", ErrInvalidOutputs)
	}

	descriptor := APIDescriptor{
		Name:    strings.TrimSpace(o.Custom.APIName),
		Region:  NormalizeRegion(o.Custom.APIRegion),
		BaseURL: strings.TrimSpace(o.Custom.APIURL),
	}
	if err := descriptor.Validate(); err != nil {
		return APIDescriptor{}, err
	}

	return descriptor, nil
}

// Resources converts the outputs into the resource configuration consumed by the
// configurator. The returned value shares no mutable state with o.
func (o Outputs) Resources() ResourcesConfig {
	resources := ResourcesConfig{}

	if o.Auth != nil {
		cognito := &CognitoConfig{
			UserPoolID:        o.Auth.UserPoolID,
			UserPoolClientID:  o.Auth.UserPoolClientID,
			IdentityPoolID:    o.Auth.IdentityPoolID,
			Region:            NormalizeRegion(o.Auth.AWSRegion),
			AllowGuestAccess:  o.Auth.UnauthenticatedIdentitiesEnabled,
			MFA:               o.Auth.MFAConfiguration,
			UserAttributes:    append([]string(nil), o.Auth.StandardRequiredAttributes...),
			LoginWithEmail:    contains(o.Auth.UsernameAttributes, "email"),
			LoginWithPhone:    contains(o.Auth.UsernameAttributes, "phone_number"),
			LoginWithUsername: len(o.Auth.UsernameAttributes) == 0 || contains(o.Auth.UsernameAttributes, "username"),
		}
		if o.Auth.PasswordPolicy != nil {
			policy := *o.Auth.PasswordPolicy
			cognito.PasswordPolicy = &policy
		}
		if o.Auth.OAuth != nil && o.Auth.OAuth.Domain != "" {
			cognito.OAuth = &OAuthConfig{
				Domain:            o.Auth.OAuth.Domain,
				Scopes:            append([]string(nil), o.Auth.OAuth.Scopes...),
				RedirectSignIn:    append([]string(nil), o.Auth.OAuth.RedirectSignInURI...),
				RedirectSignOut:   append([]string(nil), o.Auth.OAuth.RedirectSignOutURI...),
				ResponseType:      o.Auth.OAuth.ResponseType,
				IdentityProviders: append([]string(nil), o.Auth.OAuth.IdentityProviders...),
			}
		}
		resources.Auth = &AuthConfig{Cognito: cognito}
	}

	if o.Custom != nil {
		resources.Custom = make(map[string]json.RawMessage, len(o.Custom.Extra))
		for key, value := range o.Custom.Extra {
			resources.Custom[key] = append(json.RawMessage(nil), value...)
		}
	}

	return resources
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

var regionHyphenReplacer = strings.NewReplacer(
	"\u2010", "-",
	"\u2011", "-",
	"\u2012", "-",
	"\u2013", "-",
	"\u2014", "-",
	"\u2015", "-",
	"\u2212", "-",
)

// NormalizeRegion trims the region and maps Unicode hyphen look-alikes to ASCII '-'.
func NormalizeRegion(region string) string {
	return regionHyphenReplacer.Replace(strings.TrimSpace(region))
}
