package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sunsided/go-oidcserver/infra/logtransports"
	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

// redisConfig points the server at a shared Redis instance for code/refresh
// token tracking. A nil *redisConfig in Config means the in-process
// store/codestore is used instead, which is fine for a single instance.
type redisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

// config is the top-level YAML configuration for the demo token server,
// the cmd/tokenserver analogue of the teacher's sample .env-driven setup,
// generalized to a declarative file since this process, unlike the
// samples, has its own signing material and lifetimes to own.
type config struct {
	ListenAddr string `yaml:"listen_addr"`
	Issuer     string `yaml:"issuer"`

	SigningKeyPath string `yaml:"signing_key_path"`
	SigningKeyID   string `yaml:"signing_key_id"`

	AccessTokenLifetime   time.Duration `yaml:"access_token_lifetime"`
	IdentityTokenLifetime time.Duration `yaml:"identity_token_lifetime"`
	RefreshTokenLifetime  time.Duration `yaml:"refresh_token_lifetime"`
	UseSlidingExpiration  bool          `yaml:"use_sliding_expiration"`

	EnableResponseTypeTokenSelection bool `yaml:"enable_response_type_token_selection"`

	Redis *redisConfig `yaml:"redis,omitempty"`

	Logging logtransports.Config `yaml:"logging"`
}

func loadConfig(path string) (*config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ucerr.Wrap(err)
	}
	var cfg config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, ucerr.Wrap(err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.AccessTokenLifetime == 0 {
		cfg.AccessTokenLifetime = 1 * time.Hour
	}
	if cfg.IdentityTokenLifetime == 0 {
		cfg.IdentityTokenLifetime = 1 * time.Hour
	}
	if cfg.RefreshTokenLifetime == 0 {
		cfg.RefreshTokenLifetime = 30 * 24 * time.Hour
	}
	return &cfg, nil
}
