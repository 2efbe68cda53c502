package ucjwt

// Config represents the configuration a client uses to authenticate itself
// against the token endpoint via the client_credentials grant.
type Config struct {
	ClientID     string `yaml:"client_id" validate:"notempty"`
	ClientSecret string `yaml:"client_secret" validate:"notempty"`
	TokenURL     string `yaml:"token_url" validate:"notempty"`
}

//go:generate genvalidate Config
