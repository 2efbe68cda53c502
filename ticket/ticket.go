// Package ticket models the authorization decision that flows from code
// issuance through token minting: a Principal (one or more identities,
// possibly chained through an actor relationship) plus a Properties bag
// of OIDC-specific values, plus issuance/expiry timestamps.
package ticket

import (
	"strings"
	"time"

	"github.com/sunsided/go-oidcserver/infra/set"
	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

// Reserved Properties keys. A leading dot keeps these out of the way of any
// host-defined custom property, matching the reserved-namespace convention
// used for the well-known claim types below.
const (
	PropertyAudiences    = ".audiences"
	PropertyPresenters   = ".presenters"
	PropertyResources    = ".resources"
	PropertyScopes       = ".scopes"
	PropertyNonce        = ".nonce"
	PropertyUsage        = ".usage"
	PropertyConfidential = ".confidential"
	PropertyRedirectURI  = ".redirect_uri"
)

// Usage values for PropertyUsage.
const (
	UsageCode          = "code"
	UsageAccessToken   = "access_token"
	UsageIdentityToken = "id_token"
	UsageRefreshToken  = "refresh_token"
)

// Claim is a single {type, value} pair carried by an identity, with an
// optional bag of claim-scoped properties (e.g. "destination").
type Claim struct {
	Type       string
	Value      string
	Properties map[string]string
}

// ClaimPropertyDestination is the reserved claim property carrying a
// space-separated set of destinations a claim is allowed to flow to.
const ClaimPropertyDestination = "destination"

// HasDestination reports ordinal membership of dest in claim's destination
// property. A claim with no destination property is considered unrestricted
// and returns false for every dest (callers should treat "no destination
// property" as a separate, permissive case rather than calling this helper).
func HasDestination(claim Claim, dest string) bool {
	if claim.Properties == nil {
		return false
	}
	return set.SplitSpaceSeparated(claim.Properties[ClaimPropertyDestination]).Contains(dest)
}

// Identity is one member of a Principal: a set of claims, plus an optional
// actor describing who is acting on this identity's behalf (the chain is a
// linked list, never a cycle).
type Identity struct {
	Claims []Claim
	Actor  *Identity
}

// Principal aggregates one or more identities. It is treated as immutable
// for the duration of a request and shared by reference from Ticket.Copy;
// callers that need to mutate a Principal must Clone it first.
type Principal struct {
	Identities []Identity
}

// ClaimFilter decides whether a claim survives a Clone.
type ClaimFilter func(Claim) bool

// AllClaims is a ClaimFilter that keeps every claim.
func AllClaims(Claim) bool { return true }

// Clone produces an independent Principal containing only the claims filter
// accepts, applied transitively through each identity's actor chain.
// Mutating the clone never affects p.
func (p *Principal) Clone(filter ClaimFilter) *Principal {
	if p == nil {
		return nil
	}
	if filter == nil {
		filter = AllClaims
	}
	out := &Principal{Identities: make([]Identity, len(p.Identities))}
	for i, id := range p.Identities {
		out.Identities[i] = cloneIdentity(id, filter)
	}
	return out
}

func cloneIdentity(id Identity, filter ClaimFilter) Identity {
	claims := make([]Claim, 0, len(id.Claims))
	for _, c := range id.Claims {
		if !filter(c) {
			continue
		}
		claims = append(claims, cloneClaim(c))
	}
	out := Identity{Claims: claims}
	if id.Actor != nil {
		actor := cloneIdentity(*id.Actor, filter)
		out.Actor = &actor
	}
	return out
}

func cloneClaim(c Claim) Claim {
	var props map[string]string
	if c.Properties != nil {
		props = make(map[string]string, len(c.Properties))
		for k, v := range c.Properties {
			props[k] = v
		}
	}
	return Claim{Type: c.Type, Value: c.Value, Properties: props}
}

// Ticket is a Principal plus a Properties envelope plus issuance timestamps.
type Ticket struct {
	Principal  *Principal
	Properties map[string]string
	IssuedUTC  time.Time
	ExpiresUTC time.Time
}

// New returns an empty Ticket with an initialized Properties map.
func New(principal *Principal) *Ticket {
	return &Ticket{Principal: principal, Properties: map[string]string{}}
}

// Copy deep-copies the Properties map; the Principal is shared by reference,
// since it is treated as immutable for the duration of a request.
func (t *Ticket) Copy() *Ticket {
	props := make(map[string]string, len(t.Properties))
	for k, v := range t.Properties {
		props[k] = v
	}
	return &Ticket{
		Principal:  t.Principal,
		Properties: props,
		IssuedUTC:  t.IssuedUTC,
		ExpiresUTC: t.ExpiresUTC,
	}
}

func (t *Ticket) getSet(key string) set.Set[string] {
	return set.SplitSpaceSeparated(t.Properties[key])
}

// setList validates that no element contains a space, dedupes, and writes
// the space-joined string back under key.
func (t *Ticket) setList(key string, items []string) error {
	if set.ContainsSpace(items...) {
		return ucerr.Errorf("ticket: property %s: element contains a space", key)
	}
	s := set.NewStringSet(items...)
	t.Properties[key] = set.JoinSpaceSeparated(s)
	return nil
}

func (t *Ticket) hasOrdinal(key, v string) bool {
	for _, item := range strings.Split(t.Properties[key], " ") {
		if item == v {
			return true
		}
	}
	return false
}

// GetAudiences returns the deduplicated audience set.
func (t *Ticket) GetAudiences() set.Set[string] { return t.getSet(PropertyAudiences) }

// GetPresenters returns the deduplicated presenter set.
func (t *Ticket) GetPresenters() set.Set[string] { return t.getSet(PropertyPresenters) }

// GetResources returns the deduplicated resource set.
func (t *Ticket) GetResources() set.Set[string] { return t.getSet(PropertyResources) }

// GetScopes returns the deduplicated scope set.
func (t *Ticket) GetScopes() set.Set[string] { return t.getSet(PropertyScopes) }

// SetAudiences validates and writes the audience list.
func (t *Ticket) SetAudiences(items ...string) error { return t.setList(PropertyAudiences, items) }

// SetPresenters validates and writes the presenter list.
func (t *Ticket) SetPresenters(items ...string) error { return t.setList(PropertyPresenters, items) }

// SetResources validates and writes the resource list.
func (t *Ticket) SetResources(items ...string) error { return t.setList(PropertyResources, items) }

// SetScopes validates and writes the scope list.
func (t *Ticket) SetScopes(items ...string) error { return t.setList(PropertyScopes, items) }

// HasAudience reports ordinal membership without deduping the stored value.
func (t *Ticket) HasAudience(v string) bool { return t.hasOrdinal(PropertyAudiences, v) }

// HasPresenter reports ordinal membership without deduping the stored value.
func (t *Ticket) HasPresenter(v string) bool { return t.hasOrdinal(PropertyPresenters, v) }

// HasResource reports ordinal membership without deduping the stored value.
func (t *Ticket) HasResource(v string) bool { return t.hasOrdinal(PropertyResources, v) }

// HasScope reports ordinal membership without deduping the stored value.
func (t *Ticket) HasScope(v string) bool { return t.hasOrdinal(PropertyScopes, v) }

// GetNonce returns the nonce property.
func (t *Ticket) GetNonce() string { return t.Properties[PropertyNonce] }

// SetNonce sets the nonce property.
func (t *Ticket) SetNonce(nonce string) { t.Properties[PropertyNonce] = nonce }

// GetRedirectURI returns the redirect_uri property.
func (t *Ticket) GetRedirectURI() string { return t.Properties[PropertyRedirectURI] }

// SetRedirectURI sets the redirect_uri property.
func (t *Ticket) SetRedirectURI(uri string) { t.Properties[PropertyRedirectURI] = uri }

// GetUsage returns the raw usage property.
func (t *Ticket) GetUsage() string { return t.Properties[PropertyUsage] }

// SetUsage sets the usage property; callers are expected to pass one of the
// Usage* constants, though this is not itself enforced (see spec invariant 3
// — "or unset" — an unrecognized value is simply never matched by the
// IsXxx predicates below).
func (t *Ticket) SetUsage(usage string) { t.Properties[PropertyUsage] = usage }

func (t *Ticket) usageIs(want string) bool {
	return strings.EqualFold(t.Properties[PropertyUsage], want)
}

// IsAuthorizationCode reports whether usage is "code", case-insensitively.
func (t *Ticket) IsAuthorizationCode() bool { return t.usageIs(UsageCode) }

// IsAccessToken reports whether usage is "access_token", case-insensitively.
func (t *Ticket) IsAccessToken() bool { return t.usageIs(UsageAccessToken) }

// IsIdentityToken reports whether usage is "id_token", case-insensitively.
func (t *Ticket) IsIdentityToken() bool { return t.usageIs(UsageIdentityToken) }

// IsRefreshToken reports whether usage is "refresh_token", case-insensitively.
func (t *Ticket) IsRefreshToken() bool { return t.usageIs(UsageRefreshToken) }

// IsConfidential reports whether the confidential property is "true",
// case-insensitively.
func (t *Ticket) IsConfidential() bool {
	return strings.EqualFold(t.Properties[PropertyConfidential], "true")
}

// SetConfidential marks the ticket as originating from a client-authenticated
// request.
func (t *Ticket) SetConfidential(confidential bool) {
	if confidential {
		t.Properties[PropertyConfidential] = "true"
	} else {
		delete(t.Properties, PropertyConfidential)
	}
}

// IsExpired reports whether ExpiresUTC is unset or not strictly after now.
func (t *Ticket) IsExpired(now time.Time) bool {
	if t.ExpiresUTC.IsZero() {
		return true
	}
	return !t.ExpiresUTC.After(now)
}
