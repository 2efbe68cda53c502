package tokencodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
	"github.com/sunsided/go-oidcserver/ticket"
)

func unixUTC(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

// wireTicket is the JSON shape an OpaqueCodec encrypts. It exists so the
// ticket package itself never needs to export JSON tags for a
// transport concern that only this codec cares about.
type wireTicket struct {
	Usage      string            `json:"usage"`
	Principal  *wirePrincipal    `json:"principal,omitempty"`
	Properties map[string]string `json:"properties"`
	IssuedUTC  int64             `json:"issued_utc,omitempty"`
	ExpiresUTC int64             `json:"expires_utc,omitempty"`
}

type wirePrincipal struct {
	Identities []wireIdentity `json:"identities"`
}

type wireIdentity struct {
	Claims []wireClaim   `json:"claims"`
	Actor  *wireIdentity `json:"actor,omitempty"`
}

type wireClaim struct {
	Type       string            `json:"type"`
	Value      string            `json:"value"`
	Properties map[string]string `json:"properties,omitempty"`
}

func toWirePrincipal(p *ticket.Principal) *wirePrincipal {
	if p == nil {
		return nil
	}
	out := &wirePrincipal{Identities: make([]wireIdentity, len(p.Identities))}
	for i, id := range p.Identities {
		out.Identities[i] = toWireIdentity(id)
	}
	return out
}

func toWireIdentity(id ticket.Identity) wireIdentity {
	claims := make([]wireClaim, len(id.Claims))
	for i, c := range id.Claims {
		claims[i] = wireClaim{Type: c.Type, Value: c.Value, Properties: c.Properties}
	}
	out := wireIdentity{Claims: claims}
	if id.Actor != nil {
		actor := toWireIdentity(*id.Actor)
		out.Actor = &actor
	}
	return out
}

func fromWirePrincipal(w *wirePrincipal) *ticket.Principal {
	if w == nil {
		return nil
	}
	out := &ticket.Principal{Identities: make([]ticket.Identity, len(w.Identities))}
	for i, id := range w.Identities {
		out.Identities[i] = fromWireIdentity(id)
	}
	return out
}

func fromWireIdentity(w wireIdentity) ticket.Identity {
	claims := make([]ticket.Claim, len(w.Claims))
	for i, c := range w.Claims {
		claims[i] = ticket.Claim{Type: c.Type, Value: c.Value, Properties: c.Properties}
	}
	out := ticket.Identity{Claims: claims}
	if w.Actor != nil {
		actor := fromWireIdentity(*w.Actor)
		out.Actor = &actor
	}
	return out
}

// OpaqueCodec protects a Ticket by JSON-serializing it and
// encrypt-and-authenticating the result with AES-GCM under a configured
// symmetric key. The output string is base64url with no internal
// structure meaningful to the client — "opaque" per spec.md §4.D.
type OpaqueCodec struct {
	Usage string
	Key   []byte // AES-128/192/256 key, selected by len(Key)
}

// NewOpaqueCodec builds an OpaqueCodec for the given usage tag and key.
func NewOpaqueCodec(usage string, key []byte) *OpaqueCodec {
	return &OpaqueCodec{Usage: usage, Key: key}
}

func (c *OpaqueCodec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.Key)
	if err != nil {
		return nil, ucerr.Wrap(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ucerr.Wrap(err)
	}
	return gcm, nil
}

// Protect encrypts t into an opaque, base64url-encoded string.
func (c *OpaqueCodec) Protect(t *ticket.Ticket) (string, error) {
	gcm, err := c.aead()
	if err != nil {
		return "", err
	}

	w := wireTicket{
		Usage:      c.Usage,
		Principal:  toWirePrincipal(t.Principal),
		Properties: t.Properties,
	}
	if !t.IssuedUTC.IsZero() {
		w.IssuedUTC = t.IssuedUTC.Unix()
	}
	if !t.ExpiresUTC.IsZero() {
		w.ExpiresUTC = t.ExpiresUTC.Unix()
	}

	plaintext, err := json.Marshal(w)
	if err != nil {
		return "", ucerr.Wrap(err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ucerr.Wrap(err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unprotect decrypts and verifies token, returning (nil, nil) if the usage
// tag embedded in the ciphertext does not match c.Usage.
func (c *OpaqueCodec) Unprotect(token string) (*ticket.Ticket, error) {
	gcm, err := c.aead()
	if err != nil {
		return nil, err
	}

	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ucerr.Errorf("tokencodec: OpaqueCodec: malformed token: %w", err)
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, ucerr.New("tokencodec: OpaqueCodec: token too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ucerr.Errorf("tokencodec: OpaqueCodec: authentication failed: %w", err)
	}

	var w wireTicket
	if err := json.Unmarshal(plaintext, &w); err != nil {
		return nil, ucerr.Wrap(err)
	}
	if w.Usage != c.Usage {
		return nil, nil
	}

	t := ticket.New(fromWirePrincipal(w.Principal))
	t.Properties = w.Properties
	if w.IssuedUTC != 0 {
		t.IssuedUTC = unixUTC(w.IssuedUTC)
	}
	if w.ExpiresUTC != 0 {
		t.ExpiresUTC = unixUTC(w.ExpiresUTC)
	}
	return t, nil
}
