// Package provider defines the extension protocol: event objects carrying
// a tri-state outcome (Validated/Rejected/Skipped) that the token endpoint
// driver dispatches to a host-supplied Handler at each extension point, in
// a strict, observable order.
package provider

import (
	"github.com/sunsided/go-oidcserver/oauth2err"
	"github.com/sunsided/go-oidcserver/ticket"
)

// Status is the tri-state (plus Unset) outcome of an extension point.
type Status int

// Event statuses.
const (
	StatusUnset Status = iota
	StatusValidated
	StatusRejected
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusValidated:
		return "Validated"
	case StatusRejected:
		return "Rejected"
	case StatusSkipped:
		return "Skipped"
	default:
		return "Unset"
	}
}

// event is the common tri-state/error bookkeeping embedded in every event
// object. It is unexported; each event type exposes it through its own
// Validate/Reject/Skip/Status/Error methods so host code never constructs
// one directly.
type event struct {
	status      Status
	errorType   oauth2err.Code
	description string
	uri         string
}

// Reject marks the event Rejected with an explicit error code and
// description. Passing an empty code leaves ResolvedError to fall back to
// the event's default code.
func (e *event) Reject(code oauth2err.Code, description string) {
	e.status = StatusRejected
	e.errorType = code
	e.description = description
}

// RejectWithURI is Reject plus an error_uri.
func (e *event) RejectWithURI(code oauth2err.Code, description, uri string) {
	e.Reject(code, description)
	e.uri = uri
}

// Skip marks the event Skipped with no error (e.g. a public client omitting
// authentication). Client authentication treats Skipped as a public client;
// a GrantEvent fails with its default code unless Validated; the
// token-request, token-endpoint and token-endpoint-response events fail only
// on Rejected, so Skipped lets the request continue.
func (e *event) Skip() {
	e.status = StatusSkipped
}

// Status returns the event's current tri-state outcome.
func (e *event) Status() Status { return e.status }

// resolvedError builds the oauth2err.Error to send to the client, using the
// event's explicit error code if set, else defaultCode.
func (e *event) resolvedError(defaultCode oauth2err.Code) oauth2err.Error {
	code := e.errorType
	if code == "" {
		code = defaultCode
	}
	err := oauth2err.New(code, e.description)
	err.URI = e.uri
	return err
}

// ClientAuthenticationEvent is the first extension point: it resolves
// client_id/client_secret (already extracted from the body or HTTP Basic)
// into an authenticated client, or explains why authentication failed.
type ClientAuthenticationEvent struct {
	event

	ClientID     string
	ClientSecret string

	// ValidatedClientID is set by the handler on Validate, since a handler
	// may authenticate a client_secret_basic request and want to report a
	// normalized/canonical client_id distinct from the raw request value.
	ValidatedClientID string
}

// NewClientAuthenticationEvent builds the event carrying the client_id and
// client_secret resolved from the request body or HTTP Basic header.
func NewClientAuthenticationEvent(clientID, clientSecret string) *ClientAuthenticationEvent {
	return &ClientAuthenticationEvent{ClientID: clientID, ClientSecret: clientSecret}
}

// Validate marks the event Validated, recording the authenticated client_id.
func (e *ClientAuthenticationEvent) Validate(clientID string) {
	e.status = StatusValidated
	e.ValidatedClientID = clientID
}

// DefaultErrorCode is invalid_client, per spec.
func (e *ClientAuthenticationEvent) DefaultErrorCode() oauth2err.Code { return oauth2err.InvalidClient }

// ResolvedError returns the error to emit for a Rejected event.
func (e *ClientAuthenticationEvent) ResolvedError() oauth2err.Error {
	return e.resolvedError(e.DefaultErrorCode())
}

// TokenRequestEvent is ValidateTokenRequest: a general-purpose hook invoked
// once before grant dispatch (for flows with no prior ticket) and once more
// after ticket reconstruction (for code/refresh-token flows).
type TokenRequestEvent struct {
	event

	// ClientID is the authenticated client for this request, if any.
	ClientID string
	// Ticket is nil on the early call, and the reconstructed ticket on the
	// late call.
	Ticket *ticket.Ticket
}

// NewTokenRequestEvent builds the event for a given authenticated client and
// (possibly nil) reconstructed ticket.
func NewTokenRequestEvent(clientID string, t *ticket.Ticket) *TokenRequestEvent {
	return &TokenRequestEvent{ClientID: clientID, Ticket: t}
}

// Validate marks the event Validated with no further data.
func (e *TokenRequestEvent) Validate() { e.status = StatusValidated }

// DefaultErrorCode is invalid_request, per spec.
func (e *TokenRequestEvent) DefaultErrorCode() oauth2err.Code { return oauth2err.InvalidRequest }

// ResolvedError returns the error to emit for a Rejected event.
func (e *TokenRequestEvent) ResolvedError() oauth2err.Error {
	return e.resolvedError(e.DefaultErrorCode())
}

// GrantKind identifies which of the five grant extension points a
// GrantEvent represents.
type GrantKind int

// Grant kinds.
const (
	GrantAuthorizationCode GrantKind = iota
	GrantRefreshToken
	GrantResourceOwnerCredentials
	GrantClientCredentials
	GrantCustomExtension
)

// defaultErrorCodes maps each grant kind to the default error code the
// spec assigns it.
var defaultErrorCodes = map[GrantKind]oauth2err.Code{
	GrantAuthorizationCode:        oauth2err.InvalidGrant,
	GrantRefreshToken:             oauth2err.InvalidGrant,
	GrantResourceOwnerCredentials: oauth2err.InvalidGrant,
	GrantClientCredentials:        oauth2err.UnauthorizedClient,
	GrantCustomExtension:          oauth2err.UnsupportedGrantType,
}

// GrantEvent is the shared shape for all five grant extension points;
// exactly one fires per request, carrying which grant it is.
type GrantEvent struct {
	event

	Kind GrantKind

	// ClientID is the authenticated client for this request, if any.
	ClientID string
	// InputTicket is the ticket handed to the handler: a copy of the
	// reconstructed ticket for code/refresh grants, nil otherwise.
	InputTicket *ticket.Ticket
	// Username/Password are populated only for GrantResourceOwnerCredentials.
	Username string
	Password string

	// OutputTicket is the ticket the handler returns on Grant; it becomes
	// authoritative for the rest of the request.
	OutputTicket *ticket.Ticket
}

// NewGrantEvent builds a GrantEvent of the given kind.
func NewGrantEvent(kind GrantKind, clientID string, input *ticket.Ticket) *GrantEvent {
	return &GrantEvent{Kind: kind, ClientID: clientID, InputTicket: input}
}

// Grant marks the event Validated and records the resulting ticket.
func (e *GrantEvent) Grant(t *ticket.Ticket) {
	e.status = StatusValidated
	e.OutputTicket = t
}

// DefaultErrorCode looks up the default error code for e.Kind.
func (e *GrantEvent) DefaultErrorCode() oauth2err.Code { return defaultErrorCodes[e.Kind] }

// ResolvedError returns the error to emit for a Rejected event.
func (e *GrantEvent) ResolvedError() oauth2err.Error {
	return e.resolvedError(e.DefaultErrorCode())
}

// TokenEndpointEvent lets the host inspect or replace the authoritative
// ticket before outbound tokens are minted, and optionally declare the
// response fully handled (so the driver returns without writing anything).
type TokenEndpointEvent struct {
	event

	Ticket *ticket.Ticket

	// Handled, once set true by the handler, tells the driver to return
	// immediately: the host has already written the response.
	Handled bool
}

// NewTokenEndpointEvent builds the event carrying the authoritative ticket.
func NewTokenEndpointEvent(t *ticket.Ticket) *TokenEndpointEvent {
	return &TokenEndpointEvent{Ticket: t}
}

// Validate marks the event Validated, optionally substituting the ticket
// and/or declaring the response fully handled.
func (e *TokenEndpointEvent) Validate(t *ticket.Ticket, handled bool) {
	e.status = StatusValidated
	e.Ticket = t
	e.Handled = handled
}

// DefaultErrorCode is server_error: this extension point has no protocol
// failure mode of its own, so a Reject here is always the host's fault.
func (e *TokenEndpointEvent) DefaultErrorCode() oauth2err.Code { return oauth2err.ServerError }

// ResolvedError returns the error to emit for a Rejected event.
func (e *TokenEndpointEvent) ResolvedError() oauth2err.Error {
	return e.resolvedError(e.DefaultErrorCode())
}

// TokenEndpointResponseEvent lets the host inspect or replace the outgoing
// JSON payload before it is written to the wire.
type TokenEndpointResponseEvent struct {
	event

	// Response is the parameter bag about to be serialized; keys/values
	// follow the response-body vocabulary of spec.md §6.
	Response map[string]string
}

// NewTokenEndpointResponseEvent builds the event carrying the response
// about to be written.
func NewTokenEndpointResponseEvent(response map[string]string) *TokenEndpointResponseEvent {
	return &TokenEndpointResponseEvent{Response: response}
}

// Validate marks the event Validated, optionally substituting the response.
func (e *TokenEndpointResponseEvent) Validate(response map[string]string) {
	e.status = StatusValidated
	e.Response = response
}

// DefaultErrorCode is server_error, matching TokenEndpointEvent.
func (e *TokenEndpointResponseEvent) DefaultErrorCode() oauth2err.Code { return oauth2err.ServerError }

// ResolvedError returns the error to emit for a Rejected event.
func (e *TokenEndpointResponseEvent) ResolvedError() oauth2err.Error {
	return e.resolvedError(e.DefaultErrorCode())
}
