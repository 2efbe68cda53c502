package oidc

import (
	"encoding/json"
	"testing"

	"github.com/sunsided/go-oidcserver/infra/assert"
)

func TestTokenClaimsMarshalSingleAudienceAsString(t *testing.T) {
	c := TokenClaims{StandardClaims: StandardClaims{Audience: []string{"api-1"}, Subject: "user-1"}}
	b, err := json.Marshal(c)
	assert.NoErr(t, err)

	var raw map[string]interface{}
	assert.NoErr(t, json.Unmarshal(b, &raw))
	assert.Equal(t, raw["aud"], "api-1")
}

func TestTokenClaimsMarshalMultipleAudiencesAsArray(t *testing.T) {
	c := TokenClaims{StandardClaims: StandardClaims{Audience: []string{"api-1", "api-2"}}}
	b, err := json.Marshal(c)
	assert.NoErr(t, err)

	var raw map[string]interface{}
	assert.NoErr(t, json.Unmarshal(b, &raw))
	assert.Equal(t, raw["aud"], []interface{}{"api-1", "api-2"})
}

func TestTokenClaimsMarshalOmitsEmptyAudience(t *testing.T) {
	c := TokenClaims{StandardClaims: StandardClaims{Subject: "user-1"}}
	b, err := json.Marshal(c)
	assert.NoErr(t, err)

	var raw map[string]interface{}
	assert.NoErr(t, json.Unmarshal(b, &raw))
	_, ok := raw["aud"]
	assert.False(t, ok)
}

func TestTokenClaimsUnmarshalAcceptsStringAudience(t *testing.T) {
	var c TokenClaims
	err := json.Unmarshal([]byte(`{"sub":"user-1","aud":"api-1"}`), &c)
	assert.NoErr(t, err)
	assert.Equal(t, c.Audience, []string{"api-1"})
	assert.Equal(t, c.Subject, "user-1")
}

func TestTokenClaimsUnmarshalAcceptsArrayAudience(t *testing.T) {
	var c TokenClaims
	err := json.Unmarshal([]byte(`{"aud":["api-1","api-2"]}`), &c)
	assert.NoErr(t, err)
	assert.Equal(t, c.Audience, []string{"api-1", "api-2"})
}

func TestTokenClaimsUnmarshalMissingAudience(t *testing.T) {
	var c TokenClaims
	err := json.Unmarshal([]byte(`{"sub":"user-1"}`), &c)
	assert.NoErr(t, err)
	assert.Equal(t, len(c.Audience), 0)
}

func TestTokenClaimsUnmarshalRejectsInvalidAudienceShape(t *testing.T) {
	var c TokenClaims
	err := json.Unmarshal([]byte(`{"aud":42}`), &c)
	assert.Err(t, err)
}

func TestTokenClaimsRoundTripPreservesFields(t *testing.T) {
	c := TokenClaims{
		StandardClaims: StandardClaims{Audience: []string{"api-1"}, Subject: "user-1"},
		Email:          "user@example.com",
		Nonce:          "abc123",
		Usage:          "access_token",
	}
	b, err := json.Marshal(c)
	assert.NoErr(t, err)

	var got TokenClaims
	assert.NoErr(t, json.Unmarshal(b, &got))
	assert.Equal(t, got.Email, "user@example.com")
	assert.Equal(t, got.Nonce, "abc123")
	assert.Equal(t, got.Usage, "access_token")
	assert.Equal(t, got.Audience, []string{"api-1"})
}
