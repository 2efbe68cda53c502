package main

import (
	"context"

	"github.com/sunsided/go-oidcserver/infra/uclog"
	"github.com/sunsided/go-oidcserver/provider"
	"github.com/sunsided/go-oidcserver/store"
	"github.com/sunsided/go-oidcserver/ticket"
)

// demoProvider is the reference provider.Handler for cmd/tokenserver: a
// minimal but complete wiring of every extension point against the
// in-memory registry, the way a real host would wire these against its
// own client/user/session storage. codeStore is carried for a host
// /authorize endpoint (out of scope here) to track single-use
// authorization codes; the token endpoint itself never needs it, since
// reconstruction runs entirely through AuthorizationCodeCodec.
type demoProvider struct {
	registry  *registry
	codeStore store.Store
}

func newDemoProvider(r *registry, codeStore store.Store) *demoProvider {
	return &demoProvider{registry: r, codeStore: codeStore}
}

func (p *demoProvider) ValidateClientAuthentication(ctx context.Context, event *provider.ClientAuthenticationEvent) {
	if event.ClientID == "" {
		event.Skip()
		return
	}
	c, ok := p.registry.client(event.ClientID)
	if !ok {
		event.Reject("invalid_client", "unknown client_id")
		return
	}
	if c.Confidential && c.Secret != event.ClientSecret {
		event.Reject("invalid_client", "client_secret mismatch")
		return
	}
	event.Validate(c.ID)
}

func (p *demoProvider) ValidateTokenRequest(ctx context.Context, event *provider.TokenRequestEvent) {
	event.Validate()
}

func (p *demoProvider) GrantAuthorizationCode(ctx context.Context, event *provider.GrantEvent) {
	// The driver has already reconstructed and narrowed the ticket before
	// dispatching this event; a real host would check for revocation here.
	event.Grant(event.InputTicket)
}

func (p *demoProvider) GrantRefreshToken(ctx context.Context, event *provider.GrantEvent) {
	event.Grant(event.InputTicket)
}

func (p *demoProvider) GrantResourceOwnerCredentials(ctx context.Context, event *provider.GrantEvent) {
	u, ok := p.registry.authenticateUser(event.Username, event.Password)
	if !ok {
		event.Reject("invalid_grant", "invalid username or password")
		return
	}
	principal := &ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{
			{Type: "sub", Value: u.Subject},
			{Type: "email", Value: u.Email, Properties: map[string]string{
				ticket.ClaimPropertyDestination: "id_token",
			}},
		},
	}}}
	t := ticket.New(principal)
	if err := t.SetScopes("openid", "profile"); err != nil {
		event.Reject("server_error", err.Error())
		return
	}
	if err := t.SetAudiences(event.ClientID); err != nil {
		event.Reject("server_error", err.Error())
		return
	}
	event.Grant(t)
}

func (p *demoProvider) GrantClientCredentials(ctx context.Context, event *provider.GrantEvent) {
	principal := &ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: event.ClientID}},
	}}}
	t := ticket.New(principal)
	if err := t.SetAudiences(event.ClientID); err != nil {
		event.Reject("server_error", err.Error())
		return
	}
	event.Grant(t)
}

func (p *demoProvider) GrantCustomExtension(ctx context.Context, event *provider.GrantEvent) {
	event.Reject("unsupported_grant_type", "this server defines no custom grant types")
}

func (p *demoProvider) TokenEndpoint(ctx context.Context, event *provider.TokenEndpointEvent) {
	event.Validate(event.Ticket, false)
}

func (p *demoProvider) TokenEndpointResponse(ctx context.Context, event *provider.TokenEndpointResponseEvent) {
	uclog.Debugf(ctx, "tokenserver: issuing response with keys=%v", keysOf(event.Response))
	event.Validate(event.Response)
}

func keysOf(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
