// Package store defines the host-side persistence contract for opaque
// authorization-code and refresh-token strings produced by tokencodec:
// the core itself never persists anything (spec.md §9 "Codec
// pluggability" — protect/unprotect is a pure transform), so a runnable
// server needs somewhere to park a code between issuance and redemption.
package store

import "context"

// Store saves and loads an opaque token string (an authorization code or
// refresh token as produced by a tokencodec.Codec) under its own value as
// the lookup key, for the duration ttl.
type Store interface {
	// Save records token, expiring it after ttl.
	Save(ctx context.Context, token string, ttl int64) error
	// Exists reports whether token is still present (not expired, not
	// consumed). The core's codec — not this store — is the source of
	// truth for the ticket payload; this store only answers "is this code
	// still redeemable", e.g. to implement single-use authorization codes.
	Exists(ctx context.Context, token string) (bool, error)
	// Consume atomically checks existence and deletes the entry, so a
	// code can be redeemed at most once even under concurrent requests.
	Consume(ctx context.Context, token string) (bool, error)
}
