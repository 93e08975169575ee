package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/windowman/goldenthread/internal/auth"
	"github.com/windowman/goldenthread/internal/engagement"
	"github.com/windowman/goldenthread/internal/identity"
	"github.com/windowman/goldenthread/internal/ledger"
	"github.com/windowman/goldenthread/internal/models"
	"github.com/windowman/goldenthread/internal/session"
	"github.com/windowman/goldenthread/internal/store"
)

// userEmailHeader carries the site-authenticated user for the sync endpoint.
const userEmailHeader = "X-WM-User-Email"

// RegisterSessionRoutes registers the tracking-path endpoints.
//
// POST /api/wm/session      - bootstrap, idempotent upsert
// POST /api/wm/event        - fire-and-forget ledger write + engagement points
// POST /api/wm/session/sync - push local session data to profile, or hydrate
func RegisterSessionRoutes(r gin.IRoutes, st *store.PostgresStore, scorer *engagement.Scorer, lw *ledger.Writer, syncer *session.Syncer) {
	r.POST("/api/wm/session", func(c *gin.Context) {
		var req models.SessionBootstrapRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		sessionID, err := session.Bootstrap(c.Request.Context(), st, identity.VisitorID(c), req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     "wm_session_id",
			Value:    sessionID,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})

		c.JSON(http.StatusOK, models.SessionBootstrapResponse{SessionID: sessionID})
	})

	r.POST("/api/wm/event", func(c *gin.Context) {
		var req models.TrackEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}
		if req.EventName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_name required"})
			return
		}
		if _, err := uuid.Parse(req.SessionID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id must be a UUID"})
			return
		}

		sourceTool := req.ToolName
		if sourceTool == "" {
			sourceTool = auth.SiteTag(c)
		}

		// Best-effort by design: tracking must never block or alert the
		// visitor, so the write result is not surfaced.
		lw.Write(c.Request.Context(), ledger.Params{
			EventName:    req.EventName,
			SourceTool:   sourceTool,
			SourceSystem: "web",
			IngestedBy:   "api",
			ClientID:     identity.VisitorID(c),
			SessionID:    req.SessionID,
			PagePath:     req.PagePath,
			Metadata:     req.Params,
		})

		if req.Points > 0 {
			for _, t := range scorer.Track(req.SessionID, req.EventName, req.Points, req.ToolName) {
				lw.Write(c.Request.Context(), ledger.Params{
					EventName:    t.Name,
					SourceTool:   sourceTool,
					SourceSystem: "web",
					IngestedBy:   "engagement-scorer",
					ClientID:     identity.VisitorID(c),
					SessionID:    req.SessionID,
					PagePath:     req.PagePath,
					Metadata: models.EngagementThresholdMeta{
						TotalScore: t.TotalScore,
						Threshold:  t.Threshold,
						LastAction: t.LastAction,
					}.Map(),
				})
			}
		}

		c.Status(http.StatusAccepted)
	})

	r.POST("/api/wm/session/sync", func(c *gin.Context) {
		email := c.GetHeader(userEmailHeader)
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": userEmailHeader + " required"})
			return
		}

		var req models.SessionSyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		action, data := syncer.SyncOrHydrate(c.Request.Context(), email, req.SessionData, req.Reason)
		c.JSON(http.StatusOK, models.SessionSyncResponse{Action: action, SessionData: data})
	})
}
