package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bnema/amplify-rest-cli/internal/application"
)

var (
	// ErrRequestConstruction means the request could not be built, usually because the
	// session could not be read. Nothing was sent.
	ErrRequestConstruction = errors.New("build request")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnknownAPI          = application.ErrUnknownAPI
	ErrResponseTooLarge    = errors.New("response body too large")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	RequestID  string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.URL, e.Status)
}

func (e *StatusError) Is(target error) bool {
	if target != ErrUnauthorized {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
