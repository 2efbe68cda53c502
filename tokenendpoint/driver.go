package tokenendpoint

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	httpheaders "github.com/go-http-utils/headers"

	"github.com/sunsided/go-oidcserver/infra/set"
	"github.com/sunsided/go-oidcserver/infra/uclog"
	"github.com/sunsided/go-oidcserver/message"
	"github.com/sunsided/go-oidcserver/oauth2err"
	"github.com/sunsided/go-oidcserver/provider"
	"github.com/sunsided/go-oidcserver/ticket"
	"github.com/sunsided/go-oidcserver/tokencodec"
)

// Driver implements the POST /token state machine of spec.md §4.E against
// the minimal Request/ResponseWriter abstraction.
type Driver struct {
	Config Config
}

// NewDriver builds a Driver from cfg.
func NewDriver(cfg Config) *Driver {
	return &Driver{Config: cfg}
}

// ServeToken handles a single token endpoint request end to end, honoring
// ctx cancellation at every suspension point.
func (d *Driver) ServeToken(ctx context.Context, req Request, resp ResponseWriter) {
	if ctx.Err() != nil {
		return
	}

	if req.Method() != "POST" {
		d.writeError(resp, oauth2err.New(oauth2err.InvalidRequest, "method must be POST"))
		return
	}
	if !contentTypeIsFormURLEncoded(req.Header(httpheaders.ContentType)) {
		d.writeError(resp, oauth2err.New(oauth2err.InvalidRequest, "Content-Type must be application/x-www-form-urlencoded"))
		return
	}

	msg, err := parseForm(req.Body())
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		d.writeError(resp, oauth2err.New(oauth2err.InvalidRequest, "malformed request body"))
		return
	}

	if msg.GrantType() == "" {
		d.writeError(resp, oauth2err.New(oauth2err.InvalidRequest, "grant_type is required"))
		return
	}
	if msg.IsAuthorizationCodeGrantType() && msg.Code() == "" {
		d.writeError(resp, oauth2err.New(oauth2err.InvalidRequest, "code is required"))
		return
	}
	if msg.IsRefreshTokenGrantType() && msg.RefreshToken() == "" {
		d.writeError(resp, oauth2err.New(oauth2err.InvalidRequest, "refresh_token is required"))
		return
	}
	if msg.IsPasswordGrantType() && (msg.Username() == "" || msg.Password() == "") {
		d.writeError(resp, oauth2err.New(oauth2err.InvalidRequest, "username and password are required"))
		return
	}

	clientID, clientSecret := msg.ClientID(), msg.ClientSecret()
	if clientID == "" && clientSecret == "" {
		if id, secret, ok := parseBasicAuth(req.Header(httpheaders.Authorization)); ok {
			clientID, clientSecret = id, secret
		}
	}

	authEvent := provider.NewClientAuthenticationEvent(clientID, clientSecret)
	d.Config.Provider.ValidateClientAuthentication(ctx, authEvent)
	if ctx.Err() != nil {
		return
	}

	var clientAuthenticated bool
	switch authEvent.Status() {
	case provider.StatusRejected:
		d.writeError(resp, authEvent.ResolvedError())
		return
	case provider.StatusSkipped:
		if msg.IsClientCredentialsGrantType() {
			d.writeError(resp, oauth2err.New(oauth2err.InvalidGrant, "client authentication is required when using client_credentials"))
			return
		}
	case provider.StatusValidated:
		clientID = authEvent.ValidatedClientID
		if clientID == "" {
			d.writeError(resp, oauth2err.New(oauth2err.ServerError, "client authentication validated with no client_id"))
			return
		}
		clientAuthenticated = true
	default:
		d.writeError(resp, authEvent.ResolvedError())
		return
	}

	isReconstructing := msg.IsAuthorizationCodeGrantType() || msg.IsRefreshTokenGrantType()

	if !isReconstructing {
		early := provider.NewTokenRequestEvent(clientID, nil)
		d.Config.Provider.ValidateTokenRequest(ctx, early)
		if ctx.Err() != nil {
			return
		}
		if early.Status() == provider.StatusRejected {
			d.writeError(resp, early.ResolvedError())
			return
		}
	}

	now := d.Config.clock().Now()

	var (
		t                    *ticket.Ticket
		reconstructedExpires time.Time
	)
	if isReconstructing {
		t, reconstructedExpires, err = d.reconstructTicket(msg, clientID, clientAuthenticated, now)
		if err != nil {
			d.writeError(resp, err)
			return
		}

		late := provider.NewTokenRequestEvent(clientID, t)
		d.Config.Provider.ValidateTokenRequest(ctx, late)
		if ctx.Err() != nil {
			return
		}
		if late.Status() == provider.StatusRejected {
			d.writeError(resp, late.ResolvedError())
			return
		}
	}

	finalTicket, grantErr := d.dispatchGrant(ctx, msg, clientID, t)
	if ctx.Err() != nil {
		return
	}
	if grantErr != nil {
		d.writeError(resp, grantErr)
		return
	}

	teEvent := provider.NewTokenEndpointEvent(finalTicket)
	d.Config.Provider.TokenEndpoint(ctx, teEvent)
	if ctx.Err() != nil {
		return
	}
	if teEvent.Status() == provider.StatusRejected {
		d.writeError(resp, teEvent.ResolvedError())
		return
	}
	if teEvent.Handled {
		return
	}
	finalTicket = teEvent.Ticket
	if finalTicket == nil {
		d.writeError(resp, oauth2err.New(oauth2err.ServerError, "provider returned a nil ticket"))
		return
	}

	if clientAuthenticated {
		finalTicket.SetConfidential(true)
	}
	if finalTicket.GetScopes().Len() == 0 && msg.HasScope("openid") {
		_ = finalTicket.SetScopes("openid")
	}

	response := d.buildResponse(msg, finalTicket, now, reconstructedExpires)

	respEvent := provider.NewTokenEndpointResponseEvent(response)
	d.Config.Provider.TokenEndpointResponse(ctx, respEvent)
	if ctx.Err() != nil {
		return
	}
	if respEvent.Status() == provider.StatusRejected {
		d.writeError(resp, respEvent.ResolvedError())
		return
	}
	response = respEvent.Response

	d.writeSuccess(resp, response)
}

// reconstructTicket deserializes the code/refresh_token parameter and runs
// the ordered cross-checks of spec.md §4.E.
func (d *Driver) reconstructTicket(msg *message.Message, clientID string, clientAuthenticated bool, now time.Time) (*ticket.Ticket, time.Time, error) {
	isRefresh := msg.IsRefreshTokenGrantType()

	var (
		raw   string
		codec = d.Config.AuthorizationCodeCodec
	)
	if isRefresh {
		raw = msg.RefreshToken()
		codec = d.Config.RefreshTokenCodec
	} else {
		raw = msg.Code()
	}

	t, err := codec.Unprotect(raw)
	if err != nil || t == nil {
		return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "Invalid ticket")
	}

	if t.ExpiresUTC.IsZero() || !t.ExpiresUTC.After(now) {
		return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "Expired ticket")
	}

	if isRefresh && !clientAuthenticated && t.IsConfidential() {
		return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "client authentication is required to refresh a confidential ticket")
	}

	presenters := t.GetPresenters()
	if !isRefresh && presenters.Len() == 0 {
		return nil, time.Time{}, oauth2err.New(oauth2err.ServerError, "authorization code has no presenters")
	}

	if !isRefresh && clientID == "" {
		return nil, time.Time{}, oauth2err.New(oauth2err.InvalidRequest, "client_id is required for authorization_code")
	}

	if clientID != "" && presenters.Len() > 0 && !presenters.Contains(clientID) {
		return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "client_id is not among the ticket's presenters")
	}

	if !isRefresh {
		storedRedirectURI := t.GetRedirectURI()
		if storedRedirectURI != "" {
			requestRedirectURI := msg.RedirectURI()
			delete(t.Properties, ticket.PropertyRedirectURI)
			if requestRedirectURI == "" {
				return nil, time.Time{}, oauth2err.New(oauth2err.InvalidRequest, "redirect_uri is required")
			}
			if requestRedirectURI != storedRedirectURI {
				return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "Authorization code does not contain matching redirect_uri")
			}
		}
	}

	if msg.Has(message.ParamResource) {
		stored := t.GetResources()
		if stored.Len() == 0 {
			return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "ticket has no resources to narrow")
		}
		requested := msg.GetResources()
		if !stored.IsSupersetOf(requested) {
			return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "requested resource exceeds the ticket's resources")
		}
		if err := t.SetResources(requested.Items()...); err != nil {
			return nil, time.Time{}, oauth2err.New(oauth2err.ServerError, err.Error())
		}
	}

	if msg.Has(message.ParamScope) {
		stored := t.GetScopes()
		if stored.Len() == 0 {
			return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "ticket has no scopes to narrow")
		}
		requested := msg.GetScopes()
		if !stored.IsSupersetOf(requested) {
			return nil, time.Time{}, oauth2err.New(oauth2err.InvalidGrant, "requested scope exceeds the ticket's scopes")
		}
		if err := t.SetScopes(requested.Items()...); err != nil {
			return nil, time.Time{}, oauth2err.New(oauth2err.ServerError, err.Error())
		}
	}

	uclog.Debugf(context.Background(), "tokenendpoint: narrowed resources=%q scopes=%q", set.JoinSpaceSeparated(t.GetResources()), set.JoinSpaceSeparated(t.GetScopes()))

	return t, t.ExpiresUTC, nil
}

// dispatchGrant invokes the single applicable grant extension point and
// returns the authoritative ticket it produces.
func (d *Driver) dispatchGrant(ctx context.Context, msg *message.Message, clientID string, reconstructed *ticket.Ticket) (*ticket.Ticket, error) {
	var (
		kind  provider.GrantKind
		input *ticket.Ticket
		event *provider.GrantEvent
	)

	switch {
	case msg.IsAuthorizationCodeGrantType():
		kind = provider.GrantAuthorizationCode
		input = reconstructed.Copy()
		event = provider.NewGrantEvent(kind, clientID, input)
		d.Config.Provider.GrantAuthorizationCode(ctx, event)
	case msg.IsRefreshTokenGrantType():
		kind = provider.GrantRefreshToken
		input = reconstructed.Copy()
		event = provider.NewGrantEvent(kind, clientID, input)
		d.Config.Provider.GrantRefreshToken(ctx, event)
	case msg.IsPasswordGrantType():
		kind = provider.GrantResourceOwnerCredentials
		event = provider.NewGrantEvent(kind, clientID, nil)
		event.Username = msg.Username()
		event.Password = msg.Password()
		d.Config.Provider.GrantResourceOwnerCredentials(ctx, event)
	case msg.IsClientCredentialsGrantType():
		kind = provider.GrantClientCredentials
		event = provider.NewGrantEvent(kind, clientID, nil)
		d.Config.Provider.GrantClientCredentials(ctx, event)
	default:
		kind = provider.GrantCustomExtension
		event = provider.NewGrantEvent(kind, clientID, nil)
		d.Config.Provider.GrantCustomExtension(ctx, event)
	}

	if event.Status() != provider.StatusValidated {
		return nil, event.ResolvedError()
	}
	if event.OutputTicket == nil {
		return nil, oauth2err.New(oauth2err.ServerError, "grant handler returned a nil ticket")
	}

	out := event.OutputTicket
	if input != nil && out.IssuedUTC.Equal(input.IssuedUTC) && out.ExpiresUTC.Equal(input.ExpiresUTC) {
		out.IssuedUTC = time.Time{}
		out.ExpiresUTC = time.Time{}
	}
	return out, nil
}

func (d *Driver) responseTypeAllows(msg *message.Message, name string) bool {
	if !d.Config.EnableResponseTypeTokenSelection {
		return true
	}
	if msg.ResponseType() == "" {
		return true
	}
	return msg.HasResponseType(name)
}

// buildResponse mints the outbound tokens selected by spec.md §4.E and
// assembles the JSON response-parameter bag.
func (d *Driver) buildResponse(msg *message.Message, t *ticket.Ticket, now time.Time, reconstructedRefreshExpires time.Time) map[string]string {
	response := map[string]string{}

	isRefreshGrant := msg.IsRefreshTokenGrantType()
	clampTo := time.Time{}
	if isRefreshGrant && !d.Config.UseSlidingExpiration {
		clampTo = reconstructedRefreshExpires
	}

	includeAccessToken := d.responseTypeAllows(msg, "token")
	includeIdentityToken := t.GetScopes().Contains("openid") && d.responseTypeAllows(msg, "id_token")
	includeRefreshToken := t.GetScopes().Contains("offline_access") && d.responseTypeAllows(msg, "refresh_token")

	if includeAccessToken {
		token, expires, err := d.issue(d.Config.AccessTokenCodec, ticket.UsageAccessToken, t, now, d.Config.AccessTokenLifetime, clampTo)
		if err == nil {
			response[message.ParamAccessToken] = token
			response[message.ParamTokenType] = "Bearer"
			response[message.ParamExpiresIn] = expiresIn(now, expires)
		}
	}
	if includeIdentityToken {
		if token, _, err := d.issue(d.Config.IdentityTokenCodec, ticket.UsageIdentityToken, t, now, d.Config.IdentityTokenLifetime, clampTo); err == nil {
			response[message.ParamIDToken] = token
		}
	}
	if includeRefreshToken {
		if token, _, err := d.issue(d.Config.RefreshTokenCodec, ticket.UsageRefreshToken, t, now, d.Config.RefreshTokenLifetime, clampTo); err == nil {
			response[message.ParamRefreshToken] = token
		}
	}

	switch {
	case msg.IsAuthorizationCodeGrantType():
		response[message.ParamResource] = set.JoinSpaceSeparated(t.GetResources())
		response[message.ParamScope] = set.JoinSpaceSeparated(t.GetScopes())
	case isRefreshGrant:
		if resource := msg.Get(message.ParamResource); resource != "" {
			if joined := set.JoinSpaceSeparated(t.GetResources()); resource != joined {
				response[message.ParamResource] = joined
			}
		}
		if scope := msg.Get(message.ParamScope); scope != "" {
			if joined := set.JoinSpaceSeparated(t.GetScopes()); scope != joined {
				response[message.ParamScope] = joined
			}
		}
	}

	return response
}

// issue mints one outbound token of the given usage kind from t, returning
// the token string and the expiry it was minted with.
func (d *Driver) issue(codec tokencodec.Codec, usage string, t *ticket.Ticket, now time.Time, lifetime time.Duration, clampTo time.Time) (string, time.Time, error) {
	tc := t.Copy()
	expires := tc.ExpiresUTC
	if expires.IsZero() {
		expires = now.Add(lifetime)
		if !clampTo.IsZero() && clampTo.Before(expires) {
			expires = clampTo
		}
		tc.ExpiresUTC = expires
	}
	if tc.IssuedUTC.IsZero() {
		tc.IssuedUTC = now
	}
	tc.SetUsage(usage)
	token, err := codec.Protect(tc)
	return token, expires, err
}

func expiresIn(now, expires time.Time) string {
	seconds := expires.Sub(now).Seconds()
	return strconv.Itoa(int(seconds + 0.5))
}

func (d *Driver) writeError(resp ResponseWriter, err error) {
	oe, ok := err.(oauth2err.Error)
	if !ok {
		oe = oauth2err.New(oauth2err.ServerError, err.Error())
	}
	body, marshalErr := json.Marshal(oe)
	if marshalErr != nil {
		resp.WriteStatus(500)
		return
	}
	resp.SetHeader(httpheaders.ContentType, "application/json;charset=UTF-8")
	resp.SetHeader(httpheaders.CacheControl, "no-cache")
	resp.SetHeader(httpheaders.Pragma, "no-cache")
	resp.SetHeader(httpheaders.Expires, "-1")
	resp.WriteStatus(oe.StatusCode)
	_, _ = resp.Write(body)
}

func (d *Driver) writeSuccess(resp ResponseWriter, response map[string]string) {
	body, err := json.Marshal(response)
	if err != nil {
		d.writeError(resp, oauth2err.New(oauth2err.ServerError, "failed to marshal response"))
		return
	}
	resp.SetHeader(httpheaders.ContentType, "application/json;charset=UTF-8")
	resp.SetHeader(httpheaders.CacheControl, "no-cache")
	resp.SetHeader(httpheaders.Pragma, "no-cache")
	resp.SetHeader(httpheaders.Expires, "-1")
	resp.WriteStatus(200)
	_, _ = resp.Write(body)
}
