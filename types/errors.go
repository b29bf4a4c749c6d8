package types

import "errors"

// Error kinds. Every error surfaced by this module matches exactly one of
// these through errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrAuthentication    = errors.New("authentication failed")
	ErrAuthorization     = errors.New("not authorized")
	ErrValidation        = errors.New("request rejected")
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError carries the HTTP status code from a REST API response.
// Kind is one of the sentinel errors above.
type APIError struct {
	Code    int
	Message string
	Kind    error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Kind }
