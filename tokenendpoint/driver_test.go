package tokenendpoint

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	httpheaders "github.com/go-http-utils/headers"

	"github.com/sunsided/go-oidcserver/infra/assert"
	"github.com/sunsided/go-oidcserver/infra/clock"
	"github.com/sunsided/go-oidcserver/oauth2err"
	"github.com/sunsided/go-oidcserver/provider"
	"github.com/sunsided/go-oidcserver/ticket"
	"github.com/sunsided/go-oidcserver/tokencodec"
)

// fakeRequest is a minimal tokenendpoint.Request test double standing in
// for the net/http adapter cmd/tokenserver provides.
type fakeRequest struct {
	method  string
	headers map[string]string
	body    string
}

func (r fakeRequest) Method() string            { return r.method }
func (r fakeRequest) Header(name string) string { return r.headers[name] }
func (r fakeRequest) Body() io.Reader            { return strings.NewReader(r.body) }

func postForm(form url.Values, clientID, clientSecret string) fakeRequest {
	headers := map[string]string{httpheaders.ContentType: "application/x-www-form-urlencoded"}
	if clientID != "" || clientSecret != "" {
		headers[httpheaders.Authorization] = "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+clientSecret))
	}
	return fakeRequest{method: "POST", headers: headers, body: form.Encode()}
}

// fakeResponseWriter captures what the driver writes.
type fakeResponseWriter struct {
	headers map[string]string
	status  int
	body    []byte
}

func newFakeResponseWriter() *fakeResponseWriter {
	return &fakeResponseWriter{headers: map[string]string{}}
}

func (w *fakeResponseWriter) SetHeader(name, value string) { w.headers[name] = value }
func (w *fakeResponseWriter) WriteStatus(code int)          { w.status = code }
func (w *fakeResponseWriter) Write(body []byte) (int, error) {
	w.body = append(w.body, body...)
	return len(body), nil
}

// passthroughProvider grants whatever ticket it was handed, for scenarios
// that only exercise the driver's own state machine.
type passthroughProvider struct {
	rejectClientAuth   bool
	skipClientAuth     bool
	grantResourceOwner func(event *provider.GrantEvent)
	grantClientCreds   func(event *provider.GrantEvent)
}

func (p *passthroughProvider) ValidateClientAuthentication(_ context.Context, event *provider.ClientAuthenticationEvent) {
	switch {
	case p.rejectClientAuth:
		event.Reject(oauth2err.InvalidClient, "rejected by test")
	case p.skipClientAuth:
		event.Skip()
	default:
		event.Validate(event.ClientID)
	}
}

func (p *passthroughProvider) ValidateTokenRequest(_ context.Context, event *provider.TokenRequestEvent) {
	event.Validate()
}

func (p *passthroughProvider) GrantAuthorizationCode(_ context.Context, event *provider.GrantEvent) {
	event.Grant(event.InputTicket)
}

func (p *passthroughProvider) GrantRefreshToken(_ context.Context, event *provider.GrantEvent) {
	event.Grant(event.InputTicket)
}

func (p *passthroughProvider) GrantResourceOwnerCredentials(_ context.Context, event *provider.GrantEvent) {
	if p.grantResourceOwner != nil {
		p.grantResourceOwner(event)
		return
	}
	event.Reject(oauth2err.InvalidGrant, "not configured")
}

func (p *passthroughProvider) GrantClientCredentials(_ context.Context, event *provider.GrantEvent) {
	if p.grantClientCreds != nil {
		p.grantClientCreds(event)
		return
	}
	event.Reject(oauth2err.UnauthorizedClient, "not configured")
}

func (p *passthroughProvider) GrantCustomExtension(_ context.Context, event *provider.GrantEvent) {
	event.Reject(oauth2err.UnsupportedGrantType, "no custom grants")
}

func (p *passthroughProvider) TokenEndpoint(_ context.Context, event *provider.TokenEndpointEvent) {
	event.Validate(event.Ticket, false)
}

func (p *passthroughProvider) TokenEndpointResponse(_ context.Context, event *provider.TokenEndpointResponseEvent) {
	event.Validate(event.Response)
}

func newTestDriver(now time.Time, pp *passthroughProvider) (*Driver, *tokencodec.OpaqueCodec, *tokencodec.OpaqueCodec) {
	key := []byte("01234567890123456789012345678901")
	accessCodec := tokencodec.NewOpaqueCodec(ticket.UsageAccessToken, key)
	idCodec := tokencodec.NewOpaqueCodec(ticket.UsageIdentityToken, key)
	refreshCodec := tokencodec.NewOpaqueCodec(ticket.UsageRefreshToken, key)
	codeCodec := tokencodec.NewOpaqueCodec(ticket.UsageCode, key)

	cfg := Config{
		Issuer:                 "https://op.example",
		AccessTokenLifetime:    time.Hour,
		IdentityTokenLifetime:  time.Hour,
		RefreshTokenLifetime:   30 * 24 * time.Hour,
		SystemClock:            clock.FixedClock{T: now},
		AccessTokenCodec:       accessCodec,
		IdentityTokenCodec:     idCodec,
		RefreshTokenCodec:      refreshCodec,
		AuthorizationCodeCodec: codeCodec,
		Provider:               pp,
	}
	return NewDriver(cfg), codeCodec, refreshCodec
}

func decodeJSON(t *testing.T, body []byte) map[string]string {
	var m map[string]string
	assert.NoErr(t, json.Unmarshal(body, &m))
	return m
}

// S1 — Authorization code happy path (spec.md §8).
func TestServeTokenAuthorizationCodeHappyPath(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{}
	driver, codeCodec, _ := newTestDriver(now, pp)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	assert.NoErr(t, tk.SetScopes("openid", "profile"))
	assert.NoErr(t, tk.SetPresenters("client-1"))
	assert.NoErr(t, tk.SetResources("api-1"))
	tk.SetRedirectURI("https://app/cb")
	tk.SetUsage(ticket.UsageCode)
	tk.ExpiresUTC = now.Add(5 * time.Minute)
	code, err := codeCodec.Protect(tk)
	assert.NoErr(t, err)

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "https://app/cb")
	req := postForm(form, "client-1", "secret")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 200)
	body := decodeJSON(t, resp.body)
	assert.True(t, body["access_token"] != "")
	assert.True(t, body["id_token"] != "")
	assert.Equal(t, body["token_type"], "Bearer")
	assert.Equal(t, body["expires_in"], "3600")
	assert.Equal(t, body["scope"], "openid profile")
	assert.Equal(t, body["resource"], "api-1")
}

// S2 — Mismatched redirect_uri (spec.md §8).
func TestServeTokenMismatchedRedirectURI(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{}
	driver, codeCodec, _ := newTestDriver(now, pp)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	assert.NoErr(t, tk.SetPresenters("client-1"))
	tk.SetRedirectURI("https://app/cb")
	tk.SetUsage(ticket.UsageCode)
	tk.ExpiresUTC = now.Add(5 * time.Minute)
	code, err := codeCodec.Protect(tk)
	assert.NoErr(t, err)

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", "https://evil/cb")
	req := postForm(form, "client-1", "secret")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 400)
	body := decodeJSON(t, resp.body)
	assert.Equal(t, body["error"], string(oauth2err.InvalidGrant))
	assert.Equal(t, body["error_description"], "Authorization code does not contain matching redirect_uri")
}

// S3 — Refresh of confidential ticket without client auth (spec.md §8).
func TestServeTokenRefreshConfidentialWithoutAuth(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{skipClientAuth: true}
	driver, _, refreshCodec := newTestDriver(now, pp)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	assert.NoErr(t, tk.SetPresenters("client-1"))
	tk.SetConfidential(true)
	tk.SetUsage(ticket.UsageRefreshToken)
	tk.ExpiresUTC = now.Add(30 * 24 * time.Hour)
	refresh, err := refreshCodec.Protect(tk)
	assert.NoErr(t, err)

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)
	req := postForm(form, "", "")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 400)
	body := decodeJSON(t, resp.body)
	assert.Equal(t, body["error"], string(oauth2err.InvalidGrant))
}

// S4 — Scope widening rejected (spec.md §8).
func TestServeTokenScopeWideningRejected(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{}
	driver, codeCodec, _ := newTestDriver(now, pp)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	assert.NoErr(t, tk.SetScopes("openid", "profile"))
	assert.NoErr(t, tk.SetPresenters("client-1"))
	tk.SetUsage(ticket.UsageCode)
	tk.ExpiresUTC = now.Add(5 * time.Minute)
	code, err := codeCodec.Protect(tk)
	assert.NoErr(t, err)

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("scope", "openid profile email")
	req := postForm(form, "client-1", "secret")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 400)
	body := decodeJSON(t, resp.body)
	assert.Equal(t, body["error"], string(oauth2err.InvalidGrant))
}

// S5 — client_credentials without authentication (spec.md §8).
func TestServeTokenClientCredentialsWithoutAuth(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{skipClientAuth: true}
	driver, _, _ := newTestDriver(now, pp)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req := postForm(form, "", "")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 400)
	body := decodeJSON(t, resp.body)
	assert.Equal(t, body["error"], string(oauth2err.InvalidGrant))
	assert.Equal(t, body["error_description"], "client authentication is required when using client_credentials")
}

// S6 — Password grant, happy path (spec.md §8).
func TestServeTokenPasswordGrantHappyPath(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{
		grantResourceOwner: func(event *provider.GrantEvent) {
			tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
				Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
			}}})
			if err := tk.SetScopes("openid", "offline_access"); err != nil {
				event.Reject(oauth2err.ServerError, err.Error())
				return
			}
			event.Grant(tk)
		},
	}
	driver, _, _ := newTestDriver(now, pp)

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", "alice")
	form.Set("password", "hunter2")
	req := postForm(form, "demo-public", "")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 200)
	body := decodeJSON(t, resp.body)
	assert.True(t, body["access_token"] != "")
	assert.True(t, body["id_token"] != "")
	assert.True(t, body["refresh_token"] != "")
}

// Boundary: missing grant_type yields invalid_request even with valid auth.
func TestServeTokenMissingGrantType(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{}
	driver, _, _ := newTestDriver(now, pp)

	form := url.Values{}
	req := postForm(form, "client-1", "secret")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 400)
	body := decodeJSON(t, resp.body)
	assert.Equal(t, body["error"], string(oauth2err.InvalidRequest))
}

// Boundary: Content-Type with a charset suffix must still be accepted.
func TestServeTokenContentTypeWithCharsetSuffix(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{
		grantClientCreds: func(event *provider.GrantEvent) {
			tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
				Claims: []ticket.Claim{{Type: "sub", Value: "client-1"}},
			}}})
			event.Grant(tk)
		},
	}
	driver, _, _ := newTestDriver(now, pp)

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req := postForm(form, "client-1", "secret")
	req.headers[httpheaders.ContentType] = "application/x-www-form-urlencoded; charset=utf-8"
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 200)
}

// Boundary: a ticket whose expires_utc equals now must be rejected.
func TestServeTokenExpiresEqualNowIsExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pp := &passthroughProvider{}
	driver, codeCodec, _ := newTestDriver(now, pp)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	assert.NoErr(t, tk.SetPresenters("client-1"))
	tk.SetUsage(ticket.UsageCode)
	tk.ExpiresUTC = now // equal, not strictly greater
	code, err := codeCodec.Protect(tk)
	assert.NoErr(t, err)

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	req := postForm(form, "client-1", "secret")
	resp := newFakeResponseWriter()

	driver.ServeToken(context.Background(), req, resp)

	assert.Equal(t, resp.status, 400)
	body := decodeJSON(t, resp.body)
	assert.Equal(t, body["error"], string(oauth2err.InvalidGrant))
	assert.Equal(t, body["error_description"], "Expired ticket")
}
