package gate

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const LoginPath = "/auth/login"

var protectedPrefixes = []string{"/dashboard", "/admin"}

// Validator decides whether a mirrored token still counts as a credential.
type Validator func(token string) bool

// Middleware redirects unauthenticated requests for protected prefixes to the
// login page. It runs synchronously per request and performs no I/O: the only
// inputs are the path and the token cookie.
func Middleware(isValid Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsProtected(c.Request.URL.Path) {
			c.Next()
			return
		}

		token, err := c.Cookie("token")
		if err != nil || token == "" || (isValid != nil && !isValid(token)) {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

func IsProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
