// Command tokenserver is a runnable demonstration host for the
// tokenendpoint core: it wires a JWT and an opaque codec, an in-memory
// client/user registry, and an HTTP listener around tokenendpoint.Driver,
// the way samples/basic wires the authzsdk packages around a concrete
// scenario.
package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sunsided/go-oidcserver/infra/logtransports"
	"github.com/sunsided/go-oidcserver/infra/uclog"
	"github.com/sunsided/go-oidcserver/store"
	"github.com/sunsided/go-oidcserver/store/codestore"
	"github.com/sunsided/go-oidcserver/store/rediscodestore"
	"github.com/sunsided/go-oidcserver/tokencodec"
	"github.com/sunsided/go-oidcserver/tokenendpoint"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	configPath := os.Getenv("TOKENSERVER_CONFIG")
	if configPath == "" {
		configPath = "tokenserver.yaml"
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("error loading %s: %v", configPath, err)
	}

	logtransports.Init(cfg.Logging)
	defer uclog.Close()

	privateKey, err := loadRSAPrivateKey(cfg.SigningKeyPath)
	if err != nil {
		log.Fatalf("error loading signing key: %v", err)
	}
	opaqueKey, err := opaqueKeyFromEnv("OPAQUE_CODEC_KEY")
	if err != nil {
		log.Fatalf("error loading opaque codec key: %v", err)
	}

	credentials := []tokencodec.SigningCredentials{{KeyID: cfg.SigningKeyID, PrivateKey: privateKey}}

	accessCodec := tokencodec.NewJWTCodec("access_token", cfg.Issuer, credentials, nil)
	identityCodec := tokencodec.NewJWTCodec("id_token", cfg.Issuer, credentials, nil)
	refreshCodec := tokencodec.NewOpaqueCodec("refresh_token", opaqueKey)
	codeCodec := tokencodec.NewOpaqueCodec("code", opaqueKey)

	// codeStore would back a host /authorize endpoint's single-use code
	// bookkeeping; ServeToken's reconstruction only needs the codec, so it
	// is not wired into the driver itself (spec.md §9 "Codec pluggability"
	// — the core persists nothing). Wiring both backends here demonstrates
	// the store.Store contract independent of that endpoint.
	var codeStore store.Store
	if cfg.Redis != nil {
		rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		codeStore = rediscodestore.New(rc, cfg.Redis.Prefix)
		log.Printf("using redis code store at %s", cfg.Redis.Addr)
	} else {
		codeStore = codestore.New()
		log.Printf("using in-memory code store")
	}

	driver := tokenendpoint.NewDriver(tokenendpoint.Config{
		Issuer:                           cfg.Issuer,
		AccessTokenLifetime:              cfg.AccessTokenLifetime,
		IdentityTokenLifetime:            cfg.IdentityTokenLifetime,
		RefreshTokenLifetime:             cfg.RefreshTokenLifetime,
		UseSlidingExpiration:             cfg.UseSlidingExpiration,
		AccessTokenCodec:                 accessCodec,
		IdentityTokenCodec:               identityCodec,
		RefreshTokenCodec:                refreshCodec,
		AuthorizationCodeCodec:           codeCodec,
		Provider:                         newDemoProvider(newDemoRegistry(), codeStore),
		EnableResponseTypeTokenSelection: cfg.EnableResponseTypeTokenSelection,
	})

	mux := http.NewServeMux()
	mux.Handle("/oidc/token", tokenHandler(driver))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("tokenserver listening on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
