// Package transport is the HTTP collaborator of the Orka client: it owns the
// base URL, credentials, JSON encoding, retries for idempotent reads, error
// classification, metrics, and tracing. Callers describe a request with
// Request and receive the decoded JSON object in Response.
package transport

import (
	"strings"

	"github.com/cocoonstack/orka/wire"
)

// AuthSet selects which credentials are attached to a request.
type AuthSet uint8

const (
	// AuthToken attaches the bearer token.
	AuthToken AuthSet = 1 << iota
	// AuthLicense attaches the license key (administrative scope).
	AuthLicense
)

// AuthAdmin is the credential set for actions on resources the caller does
// not own.
const AuthAdmin = AuthToken | AuthLicense

// Has reports whether every credential in other is also in a.
func (a AuthSet) Has(other AuthSet) bool { return a&other == other }

func (a AuthSet) String() string {
	var parts []string
	if a.Has(AuthToken) {
		parts = append(parts, "token")
	}
	if a.Has(AuthLicense) {
		parts = append(parts, "license")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Request describes one API call. Path is relative to the base URL and must
// already be escaped. A nil Body sends no payload.
type Request struct {
	Method string
	Path   string
	Body   map[string]any
	Auth   AuthSet
}

// Response is a successful API reply. Body is never nil.
type Response struct {
	StatusCode int
	Body       wire.Payload
}
