// Package tokencodec protects and reconstructs Tickets as wire strings:
// either a signed JWT or an opaque encrypt-and-authenticate blob. Four
// independent Codec instances back the four token kinds (authorization
// code, access token, identity token, refresh token) rather than one codec
// branching on kind internally.
package tokencodec

import "github.com/sunsided/go-oidcserver/ticket"

// Codec protects a Ticket into a wire string and reverses the operation.
// Unprotect returns a nil ticket (with no error) when the token is
// syntactically well-formed but tagged with a usage other than the one
// this Codec instance expects.
type Codec interface {
	Protect(t *ticket.Ticket) (string, error)
	Unprotect(token string) (*ticket.Ticket, error)
}
