package tokenendpoint

import (
	"time"

	"github.com/sunsided/go-oidcserver/infra/clock"
	"github.com/sunsided/go-oidcserver/provider"
	"github.com/sunsided/go-oidcserver/tokencodec"
)

// Config is the read-only configuration for a Driver, per spec.md §6
// "Configuration knobs". It is never mutated for the duration of a
// request; rotating credentials or codecs means replacing the whole Config.
type Config struct {
	Issuer string

	AccessTokenLifetime   time.Duration
	IdentityTokenLifetime time.Duration
	RefreshTokenLifetime  time.Duration

	UseSlidingExpiration bool

	SystemClock clock.Clock

	AccessTokenCodec       tokencodec.Codec
	IdentityTokenCodec     tokencodec.Codec
	RefreshTokenCodec      tokencodec.Codec
	AuthorizationCodeCodec tokencodec.Codec

	Provider provider.Handler

	// EnableResponseTypeTokenSelection opts into treating response_type as
	// a token-kind selector at the token endpoint itself, a non-standard
	// extension the spec requires to default off (see spec.md §9 Open
	// Question 2).
	EnableResponseTypeTokenSelection bool
}

func (c *Config) clock() clock.Clock {
	if c.SystemClock != nil {
		return c.SystemClock
	}
	return clock.SystemClock{}
}
