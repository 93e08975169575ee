package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/windowman/goldenthread/internal/calls"
	"github.com/windowman/goldenthread/internal/ledger"
	"github.com/windowman/goldenthread/internal/models"
	"github.com/windowman/goldenthread/internal/store"
)

// RegisterCallRoutes registers the call-queue endpoints.
//
// POST /functions/v1/enqueue-phonecall - create one pending call
func RegisterCallRoutes(r gin.IRoutes, enq *calls.Enqueuer, lw *ledger.Writer) {
	r.POST("/functions/v1/enqueue-phonecall", func(c *gin.Context) {
		var req models.EnqueueCallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		resp, err := enq.Enqueue(c.Request.Context(), req)

		var verr *calls.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Msg})
			return
		case errors.Is(err, calls.ErrNoAgentConfig):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no_agent_config"})
			return
		case err != nil:
			// Raw DB message surfaced for operator triage.
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  "enqueue_failed",
				"detail": err.Error(),
			})
			return
		}

		if resp.Enqueued {
			lw.Write(c.Request.Context(), ledger.Params{
				EventName:    models.EventCallEnqueued,
				SourceTool:   req.SourceTool,
				SourceSystem: "web",
				IngestedBy:   "api",
				LeadID:       req.LeadID,
				Metadata: models.CallOutcomeMeta{
					CallRequestID: resp.CallRequestID,
				}.Map(),
			})
		}

		c.JSON(http.StatusOK, resp)
	})
}

// RegisterWebhookRoutes registers the provider callback receiver.
//
// POST /hooks/phonecall - unauthenticated by design: every inbound callback
// is recorded verbatim as a receipt for admin triage, and only callbacks
// naming a known call_request_id can move queue state.
func RegisterWebhookRoutes(r gin.IRoutes, st *store.PostgresStore) {
	r.POST("/hooks/phonecall", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		callID := stringField(body, "call_request_id")
		if _, err := uuid.Parse(callID); err != nil {
			callID = ""
		}
		eventType := stringField(body, "event_type")

		receipt := models.WebhookReceipt{
			ReceiptID:  uuid.New().String(),
			Provider:   "phonecall",
			EventType:  eventType,
			CallID:     callID,
			StatusCode: http.StatusOK,
			Body:       body,
		}
		if err := st.InsertWebhookReceipt(c.Request.Context(), receipt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// Apply a reported terminal status when the callback names a row we own.
		if callID != "" {
			if status := terminalStatus(stringField(body, "status")); status != "" {
				if err := st.SetCallStatus(c.Request.Context(), callID, status); err != nil &&
					!errors.Is(err, store.ErrNotFound) {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"ok": true, "receipt_id": receipt.ReceiptID})
	})
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// terminalStatus maps provider status vocabulary onto queue statuses.
func terminalStatus(s string) string {
	switch strings.ToLower(s) {
	case "completed", "answered", "called":
		return models.CallStatusCalled
	case "failed", "no_answer", "busy", "error":
		return models.CallStatusFailed
	default:
		return ""
	}
}
