// Package identity assigns every browser a long-lived visitor id, the first
// strand of the golden thread that later ties sessions and leads together.
package identity

import (
	crand "crypto/rand"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CookieName is the visitor-id cookie.
	CookieName = "wm_vid"
	// HeaderName mirrors the client's local-storage copy of the id. When the
	// cookie is missing but the header carries a valid id, the cookie is
	// backfilled from it rather than minting a new identity.
	HeaderName = "X-WM-Visitor-Id"

	// cookieMaxAge is 400 days, the longest lifetime modern browsers honor.
	cookieMaxAge = 400 * 24 * 60 * 60

	visitorCtxKey = "visitor_id"
)

// Middleware ensures every request carries a visitor id. The id is stable for
// a browser until its storage is cleared; the middleware never rejects a
// request over identity problems.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := getOrCreateVisitorID(c)
		c.Set(visitorCtxKey, id)
		c.Next()
	}
}

// VisitorID returns the request's visitor id set by Middleware.
func VisitorID(c *gin.Context) string {
	v, _ := c.Get(visitorCtxKey)
	s, _ := v.(string)
	return s
}

// getOrCreateVisitorID resolves the visitor id with backfill: cookie first,
// then the header copy, then a freshly minted UUID. Whenever the cookie is
// absent or invalid the resolved id is (re)written to it.
func getOrCreateVisitorID(c *gin.Context) string {
	if v, err := c.Cookie(CookieName); err == nil {
		if id := normalizeUUID(v); id != "" {
			return id
		}
	}

	id := normalizeUUID(c.GetHeader(HeaderName))
	if id == "" {
		id = newVisitorID()
	}
	setVisitorCookie(c, id)
	return id
}

func normalizeUUID(s string) string {
	s = strings.TrimSpace(s)
	u, err := uuid.Parse(s)
	if err != nil {
		return ""
	}
	return u.String()
}

// newVisitorID prefers the library's secure generator and falls back to a
// manual v4 so identity assignment can never fail.
func newVisitorID() string {
	if u, err := uuid.NewRandom(); err == nil {
		return u.String()
	}

	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		// Last resort: fixed bytes still produce a structurally valid id.
		for i := range b {
			b[i] = byte(i * 17)
		}
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

func setVisitorCookie(c *gin.Context, id string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
