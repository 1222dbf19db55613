package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/bnema/amplify-rest-cli/internal/application"
)

const (
	RequestIDHeader = "X-Request-Id"

	DefaultRetryMax     = 3
	DefaultRetryWaitMin = 200 * time.Millisecond
	DefaultRetryWaitMax = 2 * time.Second
	DefaultTimeout      = 30 * time.Second

	maxResponseBytes = 4 << 20
)

type Options struct {
	// RetryMax is the number of retries after the first attempt. Negative disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	UserAgent    string
	HTTPClient   *http.Client
	Logger       logr.Logger
}

// RetryObserver is told about every retry of a request. attempt counts from 1 and max
// is the configured retry limit.
type RetryObserver func(attempt, max int)

type retryObserverKey struct{}

// WithRetryObserver attaches observe to requests issued with the returned context.
func WithRetryObserver(ctx context.Context, observe RetryObserver) context.Context {
	return context.WithValue(ctx, retryObserverKey{}, observe)
}

// Request addresses a path under a configured REST API.
type Request struct {
	// API is the REST API name. Empty selects the API declared by the outputs.
	API     string
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    []byte
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Client issues requests against the REST APIs registered in a Config. Headers from
// the configured header function are computed before every attempt.
type Client struct {
	config    *application.Config
	http      *retryablehttp.Client
	userAgent string
	log       logr.Logger
}

func New(config *application.Config, opts Options) (*Client, error) {
	if config == nil {
		return nil, errors.New("rest client requires a config")
	}

	log := opts.Logger.WithName("rest")

	httpClient := retryablehttp.NewClient()
	httpClient.Logger = leveledLogger{log: log}
	httpClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	httpClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	httpClient.RetryMax = DefaultRetryMax
	if opts.RetryMax > 0 {
		httpClient.RetryMax = opts.RetryMax
	} else if opts.RetryMax < 0 {
		httpClient.RetryMax = 0
	}
	httpClient.RetryWaitMin = durationOr(opts.RetryWaitMin, DefaultRetryWaitMin)
	httpClient.RetryWaitMax = durationOr(opts.RetryWaitMax, DefaultRetryWaitMax)
	if opts.HTTPClient != nil {
		httpClient.HTTPClient = opts.HTTPClient
	}
	if httpClient.HTTPClient.Timeout == 0 {
		httpClient.HTTPClient.Timeout = durationOr(opts.Timeout, DefaultTimeout)
	}

	c := &Client{
		config:    config,
		http:      httpClient,
		userAgent: opts.UserAgent,
		log:       log,
	}
	httpClient.PrepareRetry = c.prepareRetry
	httpClient.RequestLogHook = c.observeAttempt

	return c, nil
}

func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}

	endpoint, err := c.config.Endpoint(r.API)
	if err != nil {
		return nil, err
	}

	target, err := resolveURL(endpoint.Endpoint, r.Path, r.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestConstruction, err)
	}

	authHeaders, err := c.sessionHeaders(ctx)
	if err != nil {
		return nil, err
	}

	var body interface{}
	if r.Body != nil {
		body = r.Body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestConstruction, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	if len(r.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}
	for key, value := range authHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set(RequestIDHeader, requestID)

	c.log.V(1).Info("sending request", "method", method, "url", target, "requestId", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		if errors.Is(err, ErrRequestConstruction) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, target, err)
	}
	if len(payload) > maxResponseBytes {
		return nil, fmt.Errorf("%s %s: %w", method, target, ErrResponseTooLarge)
	}

	c.log.V(1).Info("received response", "status", resp.StatusCode, "requestId", requestID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			RequestID:  requestID,
			Body:       payload,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       payload,
		RequestID:  requestID,
	}, nil
}

func (c *Client) sessionHeaders(ctx context.Context) (map[string]string, error) {
	headerFunc := c.config.Options.REST.Headers
	if headerFunc == nil {
		return nil, nil
	}

	headers, err := headerFunc(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestConstruction, err)
	}
	return headers, nil
}

func (c *Client) prepareRetry(req *http.Request) error {
	headers, err := c.sessionHeaders(req.Context())
	if err != nil {
		return err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return nil
}

func (c *Client) observeAttempt(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 {
		return
	}
	c.log.V(1).Info("retrying request", "method", req.Method, "url", req.URL.String(), "attempt", attempt)
	if observe, ok := req.Context().Value(retryObserverKey{}).(RetryObserver); ok && observe != nil {
		observe(attempt, c.http.RetryMax)
	}
}

func resolveURL(base, path string, query url.Values) (string, error) {
	if strings.Contains(path, "://") {
		return "", fmt.Errorf("path %q must be relative to the api endpoint", path)
	}

	target := strings.TrimRight(base, "/")
	if path != "" {
		target += "/" + strings.TrimLeft(path, "/")
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		merged := parsed.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		parsed.RawQuery = merged.Encode()
	}

	return parsed.String(), nil
}

func durationOr(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}
