package provider

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunsided/go-oidcserver/infra/assert"
	"github.com/sunsided/go-oidcserver/oauth2err"
	"github.com/sunsided/go-oidcserver/ticket"
)

func TestClientAuthenticationEventDefaultsToUnset(t *testing.T) {
	e := NewClientAuthenticationEvent("client-1", "secret")
	assert.Equal(t, e.Status(), StatusUnset)
}

func TestClientAuthenticationEventValidate(t *testing.T) {
	e := NewClientAuthenticationEvent("client-1", "secret")
	e.Validate("canonical-client-1")
	assert.Equal(t, e.Status(), StatusValidated)
	assert.Equal(t, e.ValidatedClientID, "canonical-client-1")
}

func TestClientAuthenticationEventRejectUsesExplicitCode(t *testing.T) {
	e := NewClientAuthenticationEvent("client-1", "bad-secret")
	e.Reject(oauth2err.InvalidRequest, "malformed secret")
	assert.Equal(t, e.Status(), StatusRejected)
	resolved := e.ResolvedError()
	assert.Equal(t, resolved.ErrorType, oauth2err.InvalidRequest)
	assert.Equal(t, resolved.Description, "malformed secret")
}

func TestClientAuthenticationEventRejectFallsBackToDefaultCode(t *testing.T) {
	e := NewClientAuthenticationEvent("client-1", "bad-secret")
	e.Reject("", "unknown client")
	assert.Equal(t, e.ResolvedError().ErrorType, oauth2err.InvalidClient)
}

func TestClientAuthenticationEventRejectWithURI(t *testing.T) {
	e := NewClientAuthenticationEvent("client-1", "secret")
	e.RejectWithURI(oauth2err.InvalidClient, "disabled", "https://example.com/errors/disabled")
	resolved := e.ResolvedError()
	assert.Equal(t, resolved.URI, "https://example.com/errors/disabled")
}

func TestGrantEventDefaultErrorCodePerKind(t *testing.T) {
	cases := []struct {
		kind GrantKind
		want oauth2err.Code
	}{
		{GrantAuthorizationCode, oauth2err.InvalidGrant},
		{GrantRefreshToken, oauth2err.InvalidGrant},
		{GrantResourceOwnerCredentials, oauth2err.InvalidGrant},
		{GrantClientCredentials, oauth2err.UnauthorizedClient},
		{GrantCustomExtension, oauth2err.UnsupportedGrantType},
	}
	for _, c := range cases {
		t.Run(string(c.want), func(t *testing.T) {
			e := NewGrantEvent(c.kind, "client-1", nil)
			require.Equal(t, c.want, e.DefaultErrorCode())
		})
	}
}

func TestGrantEventGrantRecordsOutputTicket(t *testing.T) {
	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	e := NewGrantEvent(GrantAuthorizationCode, "client-1", tk)
	e.Grant(tk)
	assert.Equal(t, e.Status(), StatusValidated)
	assert.True(t, e.OutputTicket == tk)
}

func TestTokenEndpointEventValidateSubstitutesTicketAndHandled(t *testing.T) {
	original := ticket.New(&ticket.Principal{})
	e := NewTokenEndpointEvent(original)
	replacement := ticket.New(&ticket.Principal{})
	e.Validate(replacement, true)
	assert.True(t, e.Ticket == replacement)
	assert.True(t, e.Handled)
	assert.Equal(t, e.DefaultErrorCode(), oauth2err.ServerError)
}

func TestTokenEndpointResponseEventValidateSubstitutesResponse(t *testing.T) {
	e := NewTokenEndpointResponseEvent(map[string]string{"access_token": "abc"})
	replacement := map[string]string{"access_token": "xyz", "token_type": "Bearer"}
	e.Validate(replacement)
	assert.Equal(t, e.Response["token_type"], "Bearer")
	assert.Equal(t, e.DefaultErrorCode(), oauth2err.ServerError)
}

func TestTokenRequestEventValidate(t *testing.T) {
	e := NewTokenRequestEvent("client-1", nil)
	e.Validate()
	assert.Equal(t, e.Status(), StatusValidated)
	assert.Equal(t, e.DefaultErrorCode(), oauth2err.InvalidRequest)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, StatusValidated.String(), "Validated")
	assert.Equal(t, StatusRejected.String(), "Rejected")
	assert.Equal(t, StatusSkipped.String(), "Skipped")
	assert.Equal(t, StatusUnset.String(), "Unset")
}

func TestSkipSetsStatus(t *testing.T) {
	e := NewClientAuthenticationEvent("", "")
	e.Skip()
	assert.Equal(t, e.Status(), StatusSkipped)
}
