package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth returns a middleware that validates the Authorization header
// against the configured token. An empty token disables the check.
func BearerAuth(validToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validToken == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			Error(c, http.StatusUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token != validToken {
			Error(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Next()
	}
}
