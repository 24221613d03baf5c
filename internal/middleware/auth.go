package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireToken guards run-triggering routes with a shared operator token
// carried in the X-Admin-Token header. An empty configured token disables
// the check (local development).
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-Admin-Token") != token {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing admin token"})
			c.Abort()
			return
		}
		c.Next()
	}
}
