package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// emailCtxKey is the Gin context key holding the authenticated admin email.
const emailCtxKey = "admin_email"

// AdminMiddleware guards the admin endpoints. Two failure tiers: a missing or
// unknown bearer token is 401; a known token whose email is not on the admin
// allow-list is 403 with a deliberately generic message.
func AdminMiddleware(tokens map[string]string, allowList map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		email, ok := tokens[strings.TrimSpace(token)]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if _, ok := allowList[strings.ToLower(email)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		c.Set(emailCtxKey, strings.ToLower(email))
		c.Next()
	}
}

// AdminEmail returns the authenticated admin email from the request context.
func AdminEmail(c *gin.Context) string {
	v, _ := c.Get(emailCtxKey)
	s, _ := v.(string)
	return s
}
