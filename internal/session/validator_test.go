package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("upstream-secret"))
	assert.NoError(t, err)
	return signed
}

func TestIsValid(t *testing.T) {
	assert.False(t, IsValid(""))

	// Opaque tokens pass on presence alone.
	assert.True(t, IsValid("not-a-jwt"))

	assert.True(t, IsValid(signedToken(t, time.Now().Add(time.Hour))))
	assert.False(t, IsValid(signedToken(t, time.Now().Add(-time.Hour))))
}

func TestIsValid_NoExpClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"})
	signed, err := token.SignedString([]byte("upstream-secret"))
	assert.NoError(t, err)

	assert.True(t, IsValid(signed))
}
