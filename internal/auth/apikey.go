package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// siteCtxKey is the Gin context key used to store the authenticated site tag.
const siteCtxKey = "site_tag"

// APIKeyMiddleware guards the tracking endpoints by mapping X-API-Key → site
// tag (which site embedded the tracker). In production this mapping would
// typically come from IAM/JWT/Secret Manager.
func APIKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		site, ok := keys[apiKey]
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(siteCtxKey, site)
		c.Next()
	}
}

// SiteTag returns the authenticated site tag from the request context.
func SiteTag(c *gin.Context) string {
	v, _ := c.Get(siteCtxKey)
	s, _ := v.(string)
	return s
}
