package oauth2err

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunsided/go-oidcserver/infra/assert"
)

func TestStatusForKnownCodes(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{InvalidClient, 401},
		{ServerError, 500},
		{InvalidGrant, 400},
		{InvalidRequest, 400},
		{UnauthorizedClient, 400},
		{UnsupportedGrantType, 400},
		{InvalidScope, 400},
		{TemporarilyUnavailable, 400},
	}
	for _, c := range cases {
		t.Run(string(c.code), func(t *testing.T) {
			require.Equal(t, c.want, StatusFor(c.code))
		})
	}
}

func TestNewSetsStatusCodeFromCode(t *testing.T) {
	err := New(InvalidClient, "no such client")
	assert.Equal(t, err.StatusCode, 401)
	assert.Equal(t, err.ErrorType, InvalidClient)
	assert.Equal(t, err.Description, "no such client")
}

func TestErrorStringIncludesDescriptionWhenPresent(t *testing.T) {
	err := New(InvalidGrant, "expired code")
	assert.Equal(t, err.Error(), "invalid_grant: expired code")
}

func TestErrorStringOmitsColonWhenDescriptionEmpty(t *testing.T) {
	err := New(InvalidGrant, "")
	assert.Equal(t, err.Error(), "invalid_grant")
}
