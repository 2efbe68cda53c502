package oidc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sunsided/go-oidcserver/infra/assert"
	"github.com/sunsided/go-oidcserver/oauth2err"
)

func TestClientCredentialsTokenSourceGetTokenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoErr(t, r.ParseForm())
		assert.Equal(t, r.FormValue("grant_type"), "client_credentials")
		assert.Equal(t, r.FormValue("client_id"), "client-1")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "abc123", TokenType: "Bearer"})
	}))
	defer srv.Close()

	ccts := ClientCredentialsTokenSource{TokenURL: srv.URL, ClientID: "client-1", ClientSecret: "secret"}
	token, err := ccts.GetToken()
	assert.NoErr(t, err)
	assert.Equal(t, token, "abc123")
}

func TestClientCredentialsTokenSourceGetTokenJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(oauth2err.Error{ErrorType: oauth2err.InvalidClient, Description: "unknown client"})
	}))
	defer srv.Close()

	ccts := ClientCredentialsTokenSource{TokenURL: srv.URL, ClientID: "bad-client", ClientSecret: "secret"}
	_, err := ccts.GetToken()
	assert.Err(t, err)
}

func TestClientCredentialsTokenSourceGetTokenNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	ccts := ClientCredentialsTokenSource{TokenURL: srv.URL, ClientID: "client-1", ClientSecret: "secret"}
	_, err := ccts.GetToken()
	assert.Err(t, err)
}
