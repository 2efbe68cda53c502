// Package oauth2err defines the OAuth 2.0 / OIDC protocol error vocabulary
// used by the token endpoint, and the JSON error body shape both the
// server (tokenendpoint) and a client (infra/jsonclient, infra/oidc) use to
// exchange it.
package oauth2err

import "fmt"

// Code is one of the ordinal, case-sensitive error tokens defined by
// RFC 6749 / OIDC Core.
type Code string

// Error codes recognized by the token endpoint.
const (
	InvalidRequest          Code = "invalid_request"
	InvalidClient           Code = "invalid_client"
	InvalidGrant            Code = "invalid_grant"
	UnauthorizedClient      Code = "unauthorized_client"
	UnsupportedGrantType    Code = "unsupported_grant_type"
	UnsupportedResponseType Code = "unsupported_response_type"
	InvalidScope            Code = "invalid_scope"
	ServerError             Code = "server_error"
	TemporarilyUnavailable  Code = "temporarily_unavailable"
)

// Error is the JSON body of a token endpoint error response, and also
// implements Go's error interface so it can be returned/wrapped like any
// other error along internal call paths.
type Error struct {
	ErrorType   Code   `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`

	// StatusCode is the HTTP status this error was (or should be) reported
	// with. It is never serialized; it is metadata for the transport layer.
	StatusCode int `json:"-"`
}

// Error implements error.
func (e Error) Error() string {
	if e.Description == "" {
		return string(e.ErrorType)
	}
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Description)
}

// New builds an Error with the default HTTP status for its code.
func New(code Code, description string) Error {
	return Error{ErrorType: code, Description: description, StatusCode: StatusFor(code)}
}

// StatusFor returns the HTTP status code spec.md §6 assigns to code.
func StatusFor(code Code) int {
	switch code {
	case InvalidClient:
		return 401
	case ServerError:
		return 500
	default:
		return 400
	}
}
