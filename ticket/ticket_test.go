package ticket

import (
	"testing"
	"time"

	"github.com/sunsided/go-oidcserver/infra/assert"
)

func samplePrincipal() *Principal {
	return &Principal{Identities: []Identity{{
		Claims: []Claim{
			{Type: "sub", Value: "user-1"},
			{Type: "email", Value: "user-1@example.com"},
		},
		Actor: &Identity{Claims: []Claim{{Type: "sub", Value: "service-1"}}},
	}}}
}

func TestCloneIsIndependent(t *testing.T) {
	// Invariant 2 (spec.md §8): t.Clone(f).Claims ⊆ t.Claims, and mutating
	// the clone never changes t.
	p := samplePrincipal()
	clone := p.Clone(AllClaims)

	clone.Identities[0].Claims[0].Value = "mutated"
	assert.Equal(t, p.Identities[0].Claims[0].Value, "user-1")

	clone.Identities[0].Actor.Claims[0].Value = "mutated-actor"
	assert.Equal(t, p.Identities[0].Actor.Claims[0].Value, "service-1")
}

func TestCloneFilterDropsClaims(t *testing.T) {
	p := samplePrincipal()
	onlySub := func(c Claim) bool { return c.Type == "sub" }
	clone := p.Clone(onlySub)
	assert.Equal(t, len(clone.Identities[0].Claims), 1)
	assert.Equal(t, clone.Identities[0].Claims[0].Type, "sub")
	// The actor chain is filtered too.
	assert.Equal(t, len(clone.Identities[0].Actor.Claims), 1)
}

func TestScopesRoundTripDedupAndOrder(t *testing.T) {
	tk := New(samplePrincipal())
	err := tk.SetScopes("profile", "openid", "profile")
	assert.NoErr(t, err)
	assert.True(t, tk.HasScope("openid"))
	assert.True(t, tk.HasScope("profile"))
	assert.Equal(t, tk.GetScopes().Len(), 2)
	assert.Equal(t, tk.Properties[PropertyScopes], "openid profile")
}

func TestSetListRejectsEmbeddedSpace(t *testing.T) {
	tk := New(samplePrincipal())
	err := tk.SetScopes("open id")
	assert.Err(t, err)
}

func TestSupersetNarrowing(t *testing.T) {
	// Invariant 5 (spec.md §8): narrowing succeeds when the stored set is a
	// superset of the requested set, and yields exactly the requested set.
	tk := New(samplePrincipal())
	assert.NoErr(t, tk.SetScopes("openid", "profile", "email"))

	narrowed := New(samplePrincipal())
	assert.NoErr(t, narrowed.SetScopes("openid", "profile"))
	assert.True(t, tk.GetScopes().IsSupersetOf(narrowed.GetScopes()))
	assert.False(t, narrowed.GetScopes().IsSupersetOf(tk.GetScopes()))
}

func TestUsagePredicatesCaseInsensitive(t *testing.T) {
	tk := New(samplePrincipal())
	tk.SetUsage("ACCESS_TOKEN")
	assert.True(t, tk.IsAccessToken())
	assert.False(t, tk.IsRefreshToken())
}

func TestConfidentialRoundTrip(t *testing.T) {
	tk := New(samplePrincipal())
	assert.False(t, tk.IsConfidential())
	tk.SetConfidential(true)
	assert.True(t, tk.IsConfidential())
	tk.SetConfidential(false)
	assert.False(t, tk.IsConfidential())
	_, ok := tk.Properties[PropertyConfidential]
	assert.False(t, ok, assert.Errorf("SetConfidential(false) should delete the property"))
}

func TestIsExpiredBoundary(t *testing.T) {
	// Boundary behavior (spec.md §8): expires_utc == now must be rejected
	// (equal is not "still valid").
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tk := New(samplePrincipal())
	tk.ExpiresUTC = now
	assert.True(t, tk.IsExpired(now))
	assert.False(t, tk.IsExpired(now.Add(-time.Second)))
}

func TestCopySharesPrincipalDeepCopiesProperties(t *testing.T) {
	tk := New(samplePrincipal())
	assert.NoErr(t, tk.SetScopes("openid"))
	cp := tk.Copy()
	cp.Properties[PropertyScopes] = "profile"
	assert.Equal(t, tk.Properties[PropertyScopes], "openid")
	assert.True(t, cp.Principal == tk.Principal, assert.Errorf("Copy should share the Principal by reference"))
}

func TestHasDestinationOrdinal(t *testing.T) {
	c := Claim{Type: "email", Value: "a@b.com", Properties: map[string]string{
		ClaimPropertyDestination: "id_token userinfo",
	}}
	assert.True(t, HasDestination(c, "id_token"))
	assert.False(t, HasDestination(c, "access_token"))

	noDest := Claim{Type: "sub", Value: "x"}
	assert.False(t, HasDestination(noDest, "id_token"))
}
