package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

const maxTokenResponseBytes = 1 << 20

var (
	ErrHostedUIUnavailable = errors.New("user pool has no hosted ui domain")
	ErrInvalidGrant        = errors.New("authorization grant rejected")
)

// HostedUI addresses the OAuth 2.0 endpoints of a user pool domain.
type HostedUI struct {
	// Domain is a bare host such as "example.auth.eu-west-1.amazoncognito.com". A value
	// carrying a scheme is used as-is.
	Domain   string
	ClientID string
	Scopes   []string
	// IdentityProvider skips the hosted ui provider picker when set.
	IdentityProvider string
}

// HostedUIFromConfig builds the hosted ui description for an auth section. It fails
// with ErrHostedUIUnavailable when the outputs carry no oauth domain.
func HostedUIFromConfig(cfg domain.CognitoConfig) (HostedUI, error) {
	if cfg.OAuth == nil || strings.TrimSpace(cfg.OAuth.Domain) == "" {
		return HostedUI{}, ErrHostedUIUnavailable
	}
	if cfg.UserPoolClientID == "" {
		return HostedUI{}, errors.New("user pool client id is required")
	}

	return HostedUI{
		Domain:   strings.TrimSpace(cfg.OAuth.Domain),
		ClientID: cfg.UserPoolClientID,
		Scopes:   append([]string(nil), cfg.OAuth.Scopes...),
	}, nil
}

type AuthorizationRequest struct {
	RedirectURI   string
	State         string
	CodeChallenge string
}

type TokenExchangeRequest struct {
	RedirectURI  string
	Code         string
	CodeVerifier string
}

// TokenError is an error response from the token endpoint.
type TokenError struct {
	StatusCode  int
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *TokenError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
	}
	if e.Description == "" {
		return fmt.Sprintf("token endpoint returned status %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("token endpoint returned status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

func (e *TokenError) Is(target error) bool {
	return target == ErrInvalidGrant && e.Code == "invalid_grant"
}

func NewState() (string, error) {
	return randomURLSafe(16)
}

func (h HostedUI) endpoint(path string) (*url.URL, error) {
	raw := strings.TrimRight(h.Domain, "/")
	if raw == "" {
		return nil, ErrHostedUIUnavailable
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse hosted ui domain: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New("hosted ui domain must use http or https")
	}
	if parsed.Host == "" {
		return nil, errors.New("hosted ui domain host is required")
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + path
	return parsed, nil
}

func (h HostedUI) AuthorizationURL(req AuthorizationRequest) (string, error) {
	if h.ClientID == "" {
		return "", errors.New("client id is required")
	}
	if req.RedirectURI == "" {
		return "", errors.New("redirect uri is required")
	}
	if req.State == "" {
		return "", errors.New("state is required")
	}
	if req.CodeChallenge == "" {
		return "", errors.New("code challenge is required")
	}

	authorize, err := h.endpoint("/oauth2/authorize")
	if err != nil {
		return "", err
	}

	q := authorize.Query()
	q.Set("response_type", "code")
	q.Set("client_id", h.ClientID)
	q.Set("redirect_uri", req.RedirectURI)
	if len(h.Scopes) > 0 {
		q.Set("scope", strings.Join(h.Scopes, " "))
	}
	q.Set("state", req.State)
	q.Set("code_challenge", req.CodeChallenge)
	q.Set("code_challenge_method", PKCEChallengeMethodS256)
	if h.IdentityProvider != "" {
		q.Set("identity_provider", h.IdentityProvider)
	}
	authorize.RawQuery = q.Encode()

	return authorize.String(), nil
}

// ExchangeCode trades an authorization code for user pool tokens. The refresh token is
// optional; the access and id tokens are not.
func (h HostedUI) ExchangeCode(ctx context.Context, client *http.Client, req TokenExchangeRequest) (domain.Tokens, error) {
	if h.ClientID == "" {
		return domain.Tokens{}, errors.New("client id is required")
	}
	if req.RedirectURI == "" {
		return domain.Tokens{}, errors.New("redirect uri is required")
	}
	if req.Code == "" {
		return domain.Tokens{}, errors.New("authorization code is required")
	}
	if req.CodeVerifier == "" {
		return domain.Tokens{}, errors.New("code verifier is required")
	}
	if client == nil {
		client = http.DefaultClient
	}

	tokenURL, err := h.endpoint("/oauth2/token")
	if err != nil {
		return domain.Tokens{}, err
	}

	values := url.Values{}
	values.Set("grant_type", "authorization_code")
	values.Set("code", req.Code)
	values.Set("redirect_uri", req.RedirectURI)
	values.Set("client_id", h.ClientID)
	values.Set("code_verifier", req.CodeVerifier)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("create token exchange request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("exchange code for tokens: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body := io.LimitReader(resp.Body, maxTokenResponseBytes)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		tokenErr := &TokenError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(body).Decode(tokenErr)
		return domain.Tokens{}, tokenErr
	}

	var tokens domain.Tokens
	if err := json.NewDecoder(body).Decode(&tokens); err != nil {
		return domain.Tokens{}, fmt.Errorf("decode token response: %w", err)
	}
	if tokens.AccessToken == "" || tokens.IDToken == "" {
		return domain.Tokens{}, errors.New("token response missing required fields")
	}

	return tokens, nil
}
