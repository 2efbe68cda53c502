package tokencodec

import (
	"context"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt"

	"github.com/sunsided/go-oidcserver/infra/clock"
	"github.com/sunsided/go-oidcserver/infra/oidc"
	"github.com/sunsided/go-oidcserver/infra/ucerr"
	"github.com/sunsided/go-oidcserver/infra/ucjwt"
	"github.com/sunsided/go-oidcserver/ticket"
)

// SigningCredentials is one RSA keypair usable to sign/verify a JWT,
// optionally bound to an X.509 certificate for kid/x5t header derivation.
// A []SigningCredentials configured on a JWTCodec is tried in order; the
// first entry signs outbound tokens, and Unprotect tries each in turn to
// verify an inbound one (so a key can be rotated by prepending the new
// credentials ahead of the old).
type SigningCredentials struct {
	// KeyID overrides the derived kid header when non-empty.
	KeyID string

	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey

	// Certificate, if set, is used to derive kid (SHA-1 thumbprint) and the
	// x5t header instead of the RSA-modulus-derived kid.
	Certificate *x509.Certificate
}

func (c SigningCredentials) kid() string {
	if c.KeyID != "" {
		return c.KeyID
	}
	if c.Certificate != nil {
		sum := sha1.Sum(c.Certificate.Raw)
		return strings.ToUpper(hex.EncodeToString(sum[:]))
	}
	if c.PrivateKey != nil {
		mod := base64.RawURLEncoding.EncodeToString(c.PrivateKey.PublicKey.N.Bytes())
		if len(mod) > 40 {
			mod = mod[:40]
		}
		return strings.ToUpper(mod)
	}
	return ""
}

func (c SigningCredentials) x5t() string {
	if c.Certificate == nil {
		return ""
	}
	sum := sha1.Sum(c.Certificate.Raw)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (c SigningCredentials) publicKey() *rsa.PublicKey {
	if c.PublicKey != nil {
		return c.PublicKey
	}
	if c.Certificate != nil {
		if pub, ok := c.Certificate.PublicKey.(*rsa.PublicKey); ok {
			return pub
		}
	}
	if c.PrivateKey != nil {
		return &c.PrivateKey.PublicKey
	}
	return nil
}

// JWTCodec protects a Ticket as a signed RS256 JWT using infra/ucjwt's
// claim encoding/decoding, generalized to a rotatable list of signing
// credentials and to X.509-derived key identification.
type JWTCodec struct {
	Usage       string
	Issuer      string
	Credentials []SigningCredentials
	Clock       clock.Clock
}

// NewJWTCodec builds a JWTCodec for the given usage tag (one of
// ticket.Usage*), issuer, and signing credentials (first entry signs).
func NewJWTCodec(usage, issuer string, credentials []SigningCredentials, clk clock.Clock) *JWTCodec {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &JWTCodec{Usage: usage, Issuer: issuer, Credentials: credentials, Clock: clk}
}

func (c *JWTCodec) primarySubject(t *ticket.Ticket) string {
	if t.Principal == nil || len(t.Principal.Identities) == 0 {
		return ""
	}
	for _, claim := range t.Principal.Identities[0].Claims {
		if claim.Type == "sub" {
			return claim.Value
		}
	}
	if len(t.Principal.Identities[0].Claims) > 0 {
		return t.Principal.Identities[0].Claims[0].Value
	}
	return ""
}

// Protect builds and signs a JWT from t's principal/properties/timestamps.
func (c *JWTCodec) Protect(t *ticket.Ticket) (string, error) {
	if len(c.Credentials) == 0 {
		return "", ucerr.Errorf("tokencodec: JWTCodec %q has no signing credentials", c.Usage)
	}
	cred := c.Credentials[0]
	if cred.PrivateKey == nil {
		return "", ucerr.Errorf("tokencodec: JWTCodec %q signing credential has no private key", c.Usage)
	}

	now := c.Clock.Now()
	claims := oidc.TokenClaims{
		StandardClaims: oidc.StandardClaims{
			Audience:  t.GetAudiences().Items(),
			Subject:   c.primarySubject(t),
			IssuedAt:  now.Unix(),
			NotBefore: timestampOrZero(t.IssuedUTC),
		},
		Nonce: t.GetNonce(),
		Usage: c.Usage,
	}
	if len(t.GetAudiences().Items()) == 1 {
		claims.AuthorizedParty = firstPresenter(t)
	}
	if !t.ExpiresUTC.IsZero() {
		claims.ExpiresAt = t.ExpiresUTC.Unix()
	}

	tokenID, err := uuid.NewV4()
	if err != nil {
		return "", ucerr.Wrap(err)
	}

	signed, err := ucjwt.CreateToken(context.Background(), cred.PrivateKey, cred.kid(), tokenID, claims, c.Issuer)
	if err != nil {
		return "", ucerr.Wrap(err)
	}

	if x5t := cred.x5t(); x5t != "" {
		signed, err = setHeader(signed, cred.PrivateKey, "x5t", x5t)
		if err != nil {
			return "", ucerr.Wrap(err)
		}
	}

	rewriteActorBootstrapContext(t)

	return signed, nil
}

// Unprotect verifies the signature against every configured credential (in
// order), checks exp/nbf/iat against c.Clock, and checks the usage tag. A
// token whose usage does not match returns (nil, nil): a structurally valid
// token of the wrong kind, not a codec error.
func (c *JWTCodec) Unprotect(token string) (*ticket.Ticket, error) {
	now := c.Clock.Now().Unix()
	var lastErr error
	for _, cred := range c.Credentials {
		pub := cred.publicKey()
		if pub == nil {
			continue
		}
		var claims oidc.TokenClaims
		parser := jwt.Parser{SkipClaimsValidation: true}
		_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) { return pub, nil })
		if err != nil {
			lastErr = err
			continue
		}
		times := jwt.StandardClaims{ExpiresAt: claims.ExpiresAt, IssuedAt: claims.IssuedAt, NotBefore: claims.NotBefore}
		if !times.VerifyExpiresAt(now, false) || !times.VerifyIssuedAt(now, false) || !times.VerifyNotBefore(now, false) {
			return nil, ucerr.Errorf("tokencodec: JWTCodec %q: token is expired or not yet valid", c.Usage)
		}
		if claims.Usage != c.Usage {
			return nil, nil
		}
		return claimsToTicket(&claims), nil
	}
	if lastErr != nil {
		return nil, ucerr.Wrap(lastErr)
	}
	return nil, ucerr.Errorf("tokencodec: JWTCodec %q has no verifiable credentials", c.Usage)
}

func claimsToTicket(claims *oidc.TokenClaims) *ticket.Ticket {
	t := ticket.New(&ticket.Principal{Identities: []ticket.Identity{{
		Claims: []ticket.Claim{{Type: "sub", Value: claims.Subject}},
	}}})
	_ = t.SetAudiences(claims.Audience...)
	if claims.AuthorizedParty != "" {
		_ = t.SetPresenters(claims.AuthorizedParty)
	}
	t.SetNonce(claims.Nonce)
	t.SetUsage(claims.Usage)
	if claims.NotBefore != 0 {
		t.IssuedUTC = time.Unix(claims.NotBefore, 0).UTC()
	}
	if claims.ExpiresAt != 0 {
		t.ExpiresUTC = time.Unix(claims.ExpiresAt, 0).UTC()
	}
	return t
}

func timestampOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func firstPresenter(t *ticket.Ticket) string {
	items := t.GetPresenters().Items()
	if len(items) == 0 {
		return ""
	}
	return items[0]
}

// rewriteActorBootstrapContext appends a "bootstrap_context" claim to every
// identity in each actor chain that does not have one yet; its value is the
// decimal count of claims that actor held before the append. The actor's
// other claims are not copied into it. Protect calls it after signing, so
// the claim is not part of the returned JWT; it changes t's Principal (and
// any ticket sharing that Principal) in place.
func rewriteActorBootstrapContext(t *ticket.Ticket) {
	if t.Principal == nil {
		return
	}
	for i := range t.Principal.Identities {
		actor := t.Principal.Identities[i].Actor
		for actor != nil {
			hasCtx := false
			for _, claim := range actor.Claims {
				if claim.Type == "bootstrap_context" {
					hasCtx = true
					break
				}
			}
			if !hasCtx {
				actor.Claims = append(actor.Claims, ticket.Claim{
					Type:  "bootstrap_context",
					Value: strconv.Itoa(len(actor.Claims)),
				})
			}
			actor = actor.Actor
		}
	}
}

// setHeader re-signs token with an additional JWT header entry. ucjwt's
// CreateToken has no hook for extra headers, so JWTCodec parses the token
// it just signed, adds the header, and re-signs — the one place this
// package duplicates rather than calls into ucjwt.
func setHeader(token string, key *rsa.PrivateKey, name, value string) (string, error) {
	parsed, _, err := new(jwt.Parser).ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", ucerr.Wrap(err)
	}
	parsed.Header[name] = value
	signed, err := parsed.SignedString(key)
	if err != nil {
		return "", ucerr.Wrap(err)
	}
	return signed, nil
}
