package session

import (
	"time"

	"github.com/golang-jwt/jwt"
)

// IsValid reports whether a mirrored access token should still open the gate.
// Gateway tokens are JWTs signed upstream; without the upstream secret only
// the expiry claim can be checked here. Tokens that do not decode as JWTs, or
// that carry no exp claim, pass on presence alone.
func IsValid(token string) bool {
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return true
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return time.Now().Unix() < int64(exp)
}
