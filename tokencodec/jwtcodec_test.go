package tokencodec

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/sunsided/go-oidcserver/infra/assert"
	"github.com/sunsided/go-oidcserver/infra/clock"
	"github.com/sunsided/go-oidcserver/ticket"
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoErr(t, err)
	return key
}

func TestJWTCodecRoundTrip(t *testing.T) {
	key := testSigningKey(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := clock.FixedClock{T: now}

	codec := NewJWTCodec(ticket.UsageAccessToken, "https://op.example", []SigningCredentials{
		{KeyID: "test-key", PrivateKey: key, PublicKey: &key.PublicKey},
	}, clk)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	assert.NoErr(t, tk.SetAudiences("api-1"))
	assert.NoErr(t, tk.SetPresenters("client-1"))
	tk.SetNonce("abc123")
	tk.SetUsage(ticket.UsageAccessToken)
	tk.ExpiresUTC = now.Add(time.Hour)

	signed, err := codec.Protect(tk)
	assert.NoErr(t, err)
	assert.True(t, signed != "")

	got, err := codec.Unprotect(signed)
	assert.NoErr(t, err)
	assert.True(t, got != nil)
	assert.Equal(t, got.Principal.Identities[0].Claims[0].Value, "user-1")
	assert.True(t, got.HasAudience("api-1"))
	assert.True(t, got.HasPresenter("client-1"))
	assert.Equal(t, got.GetNonce(), "abc123")
	assert.Equal(t, got.ExpiresUTC.Unix(), tk.ExpiresUTC.Unix())
}

func TestJWTCodecUsageMismatchReturnsNilNil(t *testing.T) {
	key := testSigningKey(t)
	creds := []SigningCredentials{{KeyID: "k", PrivateKey: key, PublicKey: &key.PublicKey}}

	accessCodec := NewJWTCodec(ticket.UsageAccessToken, "https://op.example", creds, nil)
	idCodec := NewJWTCodec(ticket.UsageIdentityToken, "https://op.example", creds, nil)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	tk.SetUsage(ticket.UsageAccessToken)

	signed, err := accessCodec.Protect(tk)
	assert.NoErr(t, err)

	got, err := idCodec.Unprotect(signed)
	assert.NoErr(t, err)
	assert.True(t, got == nil)
}

func TestJWTCodecRejectsWrongKey(t *testing.T) {
	signingKey := testSigningKey(t)
	otherKey := testSigningKey(t)

	signCodec := NewJWTCodec(ticket.UsageAccessToken, "https://op.example",
		[]SigningCredentials{{KeyID: "k", PrivateKey: signingKey, PublicKey: &signingKey.PublicKey}}, nil)
	verifyCodec := NewJWTCodec(ticket.UsageAccessToken, "https://op.example",
		[]SigningCredentials{{KeyID: "k", PublicKey: &otherKey.PublicKey}}, nil)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
	}}})
	tk.SetUsage(ticket.UsageAccessToken)

	signed, err := signCodec.Protect(tk)
	assert.NoErr(t, err)

	_, err = verifyCodec.Unprotect(signed)
	assert.Err(t, err)
}

func TestRewriteActorBootstrapContextIsIdempotent(t *testing.T) {
	key := testSigningKey(t)
	codec := NewJWTCodec(ticket.UsageAccessToken, "https://op.example",
		[]SigningCredentials{{KeyID: "k", PrivateKey: key, PublicKey: &key.PublicKey}}, nil)

	tk := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: "user-1"}},
		Actor:  &ticket.Identity{Claims: []ticket.Claim{{Type: "sub", Value: "svc-1"}}},
	}}})
	tk.SetUsage(ticket.UsageAccessToken)

	_, err := codec.Protect(tk)
	assert.NoErr(t, err)
	actor := tk.Principal.Identities[0].Actor
	assert.Equal(t, len(actor.Claims), 2)

	_, err = codec.Protect(tk)
	assert.NoErr(t, err)
	assert.Equal(t, len(actor.Claims), 2)
}
