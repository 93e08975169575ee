package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/windowman/goldenthread/internal/auth"
	"github.com/windowman/goldenthread/internal/calls"
	"github.com/windowman/goldenthread/internal/config"
	"github.com/windowman/goldenthread/internal/engagement"
	"github.com/windowman/goldenthread/internal/geo"
	"github.com/windowman/goldenthread/internal/handlers"
	"github.com/windowman/goldenthread/internal/identity"
	"github.com/windowman/goldenthread/internal/ledger"
	"github.com/windowman/goldenthread/internal/session"
	"github.com/windowman/goldenthread/internal/store"
)

// allowedHeaders is the explicit CORS header list the tracking snippets and
// admin dashboard send.
const allowedHeaders = "Authorization, Content-Type, X-API-Key, " +
	identity.HeaderName + ", X-WM-User-Email"

// Deps bundles the wired services the router serves.
type Deps struct {
	Store    *store.PostgresStore
	Scorer   *engagement.Scorer
	Ledger   *ledger.Writer
	Syncer   *session.Syncer
	Enqueuer *calls.Enqueuer
	Zip      *geo.Client
}

// NewRouter wires public endpoints, the API-key tracking surface and the
// bearer-authenticated admin surface.
// Public:   /health, /ready, /hooks/phonecall
// Tracking: /api/wm/*, /functions/v1/enqueue-phonecall (X-API-Key)
// Admin:    /functions/v1/* listings (bearer + allow-list)
func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	r.Use(identity.Middleware())

	// Wrong HTTP method on a known route is 405, not 404.
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	handlers.RegisterWebhookRoutes(r, d.Store)

	// Tracking surface: per-site API keys.
	tracking := r.Group("/")
	tracking.Use(auth.APIKeyMiddleware(cfg.APIKeys))

	handlers.RegisterSessionRoutes(tracking, d.Store, d.Scorer, d.Ledger, d.Syncer)
	handlers.RegisterCallRoutes(tracking, d.Enqueuer, d.Ledger)
	handlers.RegisterToolRoutes(tracking, d.Zip)

	// Admin surface: bearer token plus the email allow-list.
	admin := r.Group("/")
	admin.Use(auth.AdminMiddleware(cfg.AdminTokens, cfg.AdminEmails))

	handlers.RegisterAdminRoutes(admin, d.Store)

	return r
}

// corsMiddleware answers preflights and stamps every response. The tracking
// snippet runs on arbitrary marketing landers, hence the wildcard origin.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", allowedHeaders)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
