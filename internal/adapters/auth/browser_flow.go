package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bnema/amplify-rest-cli/internal/domain"
)

const DefaultLoginTimeout = 5 * time.Minute

var (
	ErrStateMismatch      = errors.New("oauth callback state mismatch")
	ErrCallbackTimeout    = errors.New("timed out waiting for oauth callback")
	ErrMissingState       = errors.New("expected state is required")
	ErrNoLoopbackRedirect = errors.New("no loopback sign-in redirect uri configured")
)

// SelectRedirectURI picks the first plain-http loopback redirect from the sign-in
// redirects registered on the app client.
func SelectRedirectURI(uris []string) (string, error) {
	for _, raw := range uris {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme != "http" {
			continue
		}
		switch parsed.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return raw, nil
		}
	}
	return "", ErrNoLoopbackRedirect
}

type CallbackServer struct {
	expectedState string
	redirect      *url.URL
	listener      net.Listener
	server        *http.Server
	resultCh      chan callbackResult
	resultOnce    sync.Once
	closeOnce     sync.Once
}

type callbackResult struct {
	code string
	err  error
}

// StartCallbackServer listens for the authorization redirect. The handler is mounted on
// the redirect uri path; listenAddr defaults to the redirect uri host.
func StartCallbackServer(listenAddr, redirectURI, expectedState string) (*CallbackServer, error) {
	if expectedState == "" {
		return nil, ErrMissingState
	}

	redirect, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parse redirect uri: %w", err)
	}
	if redirect.Scheme != "http" || redirect.Host == "" {
		return nil, fmt.Errorf("redirect uri %q must be an http url", redirectURI)
	}
	if redirect.Path == "" {
		redirect.Path = "/"
	}
	if listenAddr == "" {
		listenAddr = redirect.Host
		if redirect.Port() == "" {
			listenAddr = net.JoinHostPort(redirect.Hostname(), "80")
		}
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen callback server: %w", err)
	}

	if redirect.Port() == "0" {
		if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
			redirect.Host = net.JoinHostPort(redirect.Hostname(), fmt.Sprint(tcpAddr.Port))
		}
	}

	cb := &CallbackServer{
		expectedState: expectedState,
		redirect:      redirect,
		listener:      listener,
		resultCh:      make(chan callbackResult, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, cb.handleCallback)

	cb.server = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if serveErr := cb.server.Serve(cb.listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			cb.trySendResult(callbackResult{err: serveErr})
		}
	}()

	return cb, nil
}

func (c *CallbackServer) RedirectURI() string {
	return c.redirect.String()
}

// WaitForCode blocks until the callback arrives or ctx ends, then shuts the server down.
func (c *CallbackServer) WaitForCode(ctx context.Context) (string, error) {
	defer func() { _ = c.Close() }()

	select {
	case result := <-c.resultCh:
		return result.code, result.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrCallbackTimeout
		}
		return "", ctx.Err()
	}
}

func (c *CallbackServer) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		closeErr = c.server.Close()
	})
	return closeErr
}

func (c *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("state") != c.expectedState {
		c.trySendResult(callbackResult{err: ErrStateMismatch})
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	if oauthError := query.Get("error"); oauthError != "" {
		if description := query.Get("error_description"); description != "" {
			oauthError = oauthError + ": " + description
		}
		c.trySendResult(callbackResult{err: errors.New(oauthError)})
		http.Error(w, "oauth error", http.StatusBadRequest)
		return
	}
	code := query.Get("code")
	if code == "" {
		c.trySendResult(callbackResult{err: errors.New("missing authorization code")})
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	c.trySendResult(callbackResult{code: code})
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Signed in. You can close this window."))
}

func (c *CallbackServer) trySendResult(result callbackResult) {
	c.resultOnce.Do(func() {
		c.resultCh <- result
	})
}

// BrowserLogin runs the authorization code flow with PKCE against the hosted ui.
type BrowserLogin struct {
	UI          HostedUI
	RedirectURI string
	ListenAddr  string
	HTTPClient  *http.Client
	Timeout     time.Duration
	// OpenURL hands the authorization url to the user.
	OpenURL func(authURL string) error
}

func (b BrowserLogin) Run(ctx context.Context) (domain.Tokens, error) {
	if b.OpenURL == nil {
		return domain.Tokens{}, errors.New("open url callback is required")
	}

	pkce, err := NewPKCEPair()
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("generate pkce: %w", err)
	}
	state, err := NewState()
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("generate oauth state: %w", err)
	}

	server, err := StartCallbackServer(b.ListenAddr, b.RedirectURI, state)
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("start callback server: %w", err)
	}

	authURL, err := b.UI.AuthorizationURL(AuthorizationRequest{
		RedirectURI:   server.RedirectURI(),
		State:         state,
		CodeChallenge: pkce.Challenge,
	})
	if err != nil {
		_ = server.Close()
		return domain.Tokens{}, fmt.Errorf("build authorization url: %w", err)
	}

	if err := b.OpenURL(authURL); err != nil {
		_ = server.Close()
		return domain.Tokens{}, fmt.Errorf("open authorization url: %w", err)
	}

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code, err := server.WaitForCode(waitCtx)
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("wait for oauth callback: %w", err)
	}

	tokens, err := b.UI.ExchangeCode(ctx, b.HTTPClient, TokenExchangeRequest{
		RedirectURI:  server.RedirectURI(),
		Code:         code,
		CodeVerifier: pkce.Verifier,
	})
	if err != nil {
		return domain.Tokens{}, fmt.Errorf("exchange code for tokens: %w", err)
	}

	return tokens, nil
}
