package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenVerifier(t *testing.T) {
	token, err := NewToken()
	require.NoError(t, err)
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)

	v, err := NewTokenVerifier(string(hash))
	require.NoError(t, err)
	require.NotNil(t, v)

	require.NoError(t, v.Verify(token))
	require.NoError(t, v.Verify(" "+token+" "), "cached path trims too")
	assert.ErrorIs(t, v.Verify("wrong"), ErrUnauthorized)
	assert.ErrorIs(t, v.Verify(""), ErrUnauthorized)
}

func TestNewTokenVerifierDisabledAndInvalid(t *testing.T) {
	v, err := NewTokenVerifier("  ")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = NewTokenVerifier("not-a-bcrypt-hash")
	require.Error(t, err)
}

func TestHashTokenVerifies(t *testing.T) {
	hash, err := HashToken("s3cret")
	require.NoError(t, err)
	v, err := NewTokenVerifier(hash)
	require.NoError(t, err)
	require.NoError(t, v.Verify("s3cret"))
}
