// Package message provides a typed, case-insensitive view over an OIDC
// request's parameter bag, plus pure predicate functions ("classifiers")
// that decide which grant/flow/response-mode a request represents.
package message

import (
	"strings"

	"github.com/sunsided/go-oidcserver/infra/set"
)

// Well-known OIDC/OAuth2 parameter names.
const (
	ParamGrantType        = "grant_type"
	ParamResponseType     = "response_type"
	ParamResponseMode     = "response_mode"
	ParamScope            = "scope"
	ParamResource         = "resource"
	ParamCode             = "code"
	ParamRefreshToken     = "refresh_token"
	ParamRedirectURI      = "redirect_uri"
	ParamUsername         = "username"
	ParamPassword         = "password"
	ParamClientID         = "client_id"
	ParamClientSecret     = "client_secret"
	ParamError            = "error"
	ParamErrorDescription = "error_description"
	ParamErrorURI         = "error_uri"
	ParamAccessToken      = "access_token"
	ParamIDToken          = "id_token"
	ParamTokenType        = "token_type"
	ParamExpiresIn        = "expires_in"
)

// Grant type values.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypePassword          = "password"
	GrantTypeClientCredentials = "client_credentials"
)

// Message is a case-insensitive mapping from OIDC parameter name to value.
// Unknown parameters are preserved; multi-valued parameters are stored as
// single space-separated strings, per the wire format.
type Message struct {
	params map[string]string // keyed by lower-cased parameter name
	names  map[string]string // lower-cased name -> original-case name, for round-tripping
}

// New returns an empty Message.
func New() *Message {
	return &Message{params: map[string]string{}, names: map[string]string{}}
}

// FromValues builds a Message from a parsed form (e.g. the decoded body of
// an application/x-www-form-urlencoded POST). Where a key appears multiple
// times, values are joined with a single space to produce the canonical
// multi-valued representation.
func FromValues(values map[string][]string) *Message {
	m := New()
	for k, vs := range values {
		m.Set(k, strings.Join(vs, " "))
	}
	return m
}

// Get returns the value of parameter name, case-insensitively, or "" if unset.
func (m *Message) Get(name string) string {
	return m.params[strings.ToLower(name)]
}

// Has reports whether parameter name is present at all (even if its value is empty).
func (m *Message) Has(name string) bool {
	_, ok := m.params[strings.ToLower(name)]
	return ok
}

// Set stores value under name, preserving name's original case for enumeration.
func (m *Message) Set(name, value string) {
	key := strings.ToLower(name)
	m.params[key] = value
	m.names[key] = name
}

// Del removes parameter name.
func (m *Message) Del(name string) {
	key := strings.ToLower(name)
	delete(m.params, key)
	delete(m.names, key)
}

// Parameters returns every parameter name (in original case) currently set.
func (m *Message) Parameters() []string {
	out := make([]string, 0, len(m.names))
	for _, n := range m.names {
		out = append(out, n)
	}
	return out
}

// GrantType returns the grant_type parameter.
func (m *Message) GrantType() string { return m.Get(ParamGrantType) }

// ResponseType returns the response_type parameter.
func (m *Message) ResponseType() string { return m.Get(ParamResponseType) }

// ResponseMode returns the response_mode parameter.
func (m *Message) ResponseMode() string { return m.Get(ParamResponseMode) }

// Code returns the code parameter.
func (m *Message) Code() string { return m.Get(ParamCode) }

// RefreshToken returns the refresh_token parameter.
func (m *Message) RefreshToken() string { return m.Get(ParamRefreshToken) }

// RedirectURI returns the redirect_uri parameter.
func (m *Message) RedirectURI() string { return m.Get(ParamRedirectURI) }

// Username returns the username parameter.
func (m *Message) Username() string { return m.Get(ParamUsername) }

// Password returns the password parameter.
func (m *Message) Password() string { return m.Get(ParamPassword) }

// ClientID returns the client_id parameter.
func (m *Message) ClientID() string { return m.Get(ParamClientID) }

// ClientSecret returns the client_secret parameter.
func (m *Message) ClientSecret() string { return m.Get(ParamClientSecret) }

// GetScopes splits the scope parameter on spaces; empty if absent.
func (m *Message) GetScopes() set.Set[string] {
	return set.SplitSpaceSeparated(m.Get(ParamScope))
}

// GetResources splits the resource parameter on spaces; empty if absent.
func (m *Message) GetResources() set.Set[string] {
	return set.SplitSpaceSeparated(m.Get(ParamResource))
}

// getResponseTypes splits the response_type parameter on spaces.
func (m *Message) getResponseTypes() set.Set[string] {
	return set.SplitSpaceSeparated(m.Get(ParamResponseType))
}

// HasScope reports ordinal membership of v in the scope parameter.
func (m *Message) HasScope(v string) bool {
	return m.GetScopes().Contains(v)
}

// HasResponseType reports ordinal membership of v in the response_type parameter.
func (m *Message) HasResponseType(v string) bool {
	return m.getResponseTypes().Contains(v)
}

// IsAuthorizationCodeFlow reports whether response_type is exactly "code".
func (m *Message) IsAuthorizationCodeFlow() bool {
	return m.Get(ParamResponseType) == "code"
}

// IsNoneFlow reports whether response_type is exactly "none".
func (m *Message) IsNoneFlow() bool {
	return m.Get(ParamResponseType) == "none"
}

// IsImplicitFlow reports whether the response_type set is exactly one of
// {id_token}, {token}, {id_token,token}.
func (m *Message) IsImplicitFlow() bool {
	rt := m.getResponseTypes()
	switch rt.Len() {
	case 1:
		return rt.Contains("id_token") || rt.Contains("token")
	case 2:
		return rt.Contains("id_token") && rt.Contains("token")
	default:
		return false
	}
}

// IsHybridFlow reports whether the response_type set is exactly one of
// {code,id_token}, {code,token}, {code,id_token,token}.
func (m *Message) IsHybridFlow() bool {
	rt := m.getResponseTypes()
	if !rt.Contains("code") {
		return false
	}
	switch rt.Len() {
	case 2:
		return rt.Contains("id_token") || rt.Contains("token")
	case 3:
		return rt.Contains("id_token") && rt.Contains("token")
	default:
		return false
	}
}

// IsFragmentResponseMode reports whether fragment encoding applies: either
// response_mode is explicitly "fragment", or it is unset and the flow is
// implicit or hybrid. An explicit, different response_mode suppresses inference.
func (m *Message) IsFragmentResponseMode() bool {
	rm := m.Get(ParamResponseMode)
	if rm == "fragment" {
		return true
	}
	if rm != "" {
		return false
	}
	return m.IsImplicitFlow() || m.IsHybridFlow()
}

// IsQueryResponseMode mirrors IsFragmentResponseMode for "query", defaulting
// when response_mode is unset and the flow is authorization-code or none.
func (m *Message) IsQueryResponseMode() bool {
	rm := m.Get(ParamResponseMode)
	if rm == "query" {
		return true
	}
	if rm != "" {
		return false
	}
	return m.IsAuthorizationCodeFlow() || m.IsNoneFlow()
}

// IsFormPostResponseMode reports strict equality with "form_post".
func (m *Message) IsFormPostResponseMode() bool {
	return m.Get(ParamResponseMode) == "form_post"
}

// IsAuthorizationCodeGrantType reports ordinal equality with "authorization_code".
func (m *Message) IsAuthorizationCodeGrantType() bool {
	return m.Get(ParamGrantType) == GrantTypeAuthorizationCode
}

// IsRefreshTokenGrantType reports ordinal equality with "refresh_token".
func (m *Message) IsRefreshTokenGrantType() bool {
	return m.Get(ParamGrantType) == GrantTypeRefreshToken
}

// IsPasswordGrantType reports ordinal equality with "password".
func (m *Message) IsPasswordGrantType() bool {
	return m.Get(ParamGrantType) == GrantTypePassword
}

// IsClientCredentialsGrantType reports ordinal equality with "client_credentials".
func (m *Message) IsClientCredentialsGrantType() bool {
	return m.Get(ParamGrantType) == GrantTypeClientCredentials
}
