// NOTE: automatically generated file -- DO NOT EDIT

package ucjwt

import (
	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

// Validate implements Validateable
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return ucerr.Errorf("Config.ClientID can't be empty")
	}
	if c.ClientSecret == "" {
		return ucerr.Errorf("Config.ClientSecret can't be empty")
	}
	if c.TokenURL == "" {
		return ucerr.Errorf("Config.TokenURL can't be empty")
	}
	return nil
}
