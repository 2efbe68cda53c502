package main

import (
	"crypto/rsa"
	"encoding/hex"
	"os"

	"github.com/golang-jwt/jwt"

	"github.com/sunsided/go-oidcserver/infra/ucerr"
)

func loadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ucerr.Wrap(err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, ucerr.Wrap(err)
	}
	return key, nil
}

// opaqueKeyFromEnv reads a hex-encoded AES-256 key from the environment,
// the way samples/basic reads its client credentials from .env rather than
// from the YAML config, since this value is a secret.
func opaqueKeyFromEnv(name string) ([]byte, error) {
	hexKey := os.Getenv(name)
	if hexKey == "" {
		return nil, ucerr.Errorf("%s is not set", name)
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, ucerr.Wrap(err)
	}
	if len(key) != 32 {
		return nil, ucerr.Errorf("%s must decode to 32 bytes for AES-256, got %d", name, len(key))
	}
	return key, nil
}
