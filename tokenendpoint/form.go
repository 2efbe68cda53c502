package tokenendpoint

import (
	"io"
	"net/url"
	"strings"

	"github.com/sunsided/go-oidcserver/message"
)

func contentTypeIsFormURLEncoded(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/x-www-form-urlencoded")
}

// parseForm reads and decodes an application/x-www-form-urlencoded body
// into a message.Message. This is plain wire-format decoding, not HTTP
// framework plumbing, so it lives in the core rather than in cmd/tokenserver.
func parseForm(body io.Reader) (*message.Message, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, err
	}
	return message.FromValues(values), nil
}

// parseBasicAuth decodes a "Basic <base64(client_id:client_secret)>"
// Authorization header. A malformed header is non-fatal: ok is false and
// the caller proceeds with client_id/client_secret unset.
func parseBasicAuth(header string) (clientID, clientSecret string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	decoded, err := decodeBase64(strings.TrimPrefix(header, prefix))
	if err != nil {
		return "", "", false
	}
	idx := strings.IndexByte(decoded, ':')
	if idx < 0 {
		return "", "", false
	}
	return decoded[:idx], decoded[idx+1:], true
}
