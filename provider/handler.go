package provider

import "context"

// Handler is the provider vtable: the host implements one method per
// extension point named in spec.md §4.C, and tokenendpoint.Driver calls
// them in exactly this order for a single request.
type Handler interface {
	// ValidateClientAuthentication resolves (or rejects, or skips) the
	// client identified by event.ClientID/ClientSecret.
	ValidateClientAuthentication(ctx context.Context, event *ClientAuthenticationEvent)

	// ValidateTokenRequest is invoked once before grant dispatch for flows
	// with no prior ticket, and once more after ticket reconstruction for
	// authorization_code/refresh_token flows.
	ValidateTokenRequest(ctx context.Context, event *TokenRequestEvent)

	// GrantAuthorizationCode supplies the final ticket for an
	// authorization_code grant.
	GrantAuthorizationCode(ctx context.Context, event *GrantEvent)

	// GrantRefreshToken supplies the final ticket for a refresh_token grant.
	GrantRefreshToken(ctx context.Context, event *GrantEvent)

	// GrantResourceOwnerCredentials supplies the final ticket for a
	// password grant.
	GrantResourceOwnerCredentials(ctx context.Context, event *GrantEvent)

	// GrantClientCredentials supplies the final ticket for a
	// client_credentials grant.
	GrantClientCredentials(ctx context.Context, event *GrantEvent)

	// GrantCustomExtension supplies the final ticket for any other
	// grant_type value.
	GrantCustomExtension(ctx context.Context, event *GrantEvent)

	// TokenEndpoint lets the host inspect or replace the authoritative
	// ticket, and optionally take over the response entirely.
	TokenEndpoint(ctx context.Context, event *TokenEndpointEvent)

	// TokenEndpointResponse lets the host inspect or replace the outgoing
	// JSON payload before it is written.
	TokenEndpointResponse(ctx context.Context, event *TokenEndpointResponseEvent)
}
