package models

import "time"

// Pending-call statuses. This service creates rows as StatusPending and the
// dispatch worker owns every transition after that.
const (
	CallStatusPending    = "pending"
	CallStatusProcessing = "processing"
	CallStatusCalled     = "called"
	CallStatusFailed     = "failed"
)

// PendingCall is one pending_calls row.
type PendingCall struct {
	CallRequestID string         `json:"call_request_id"`
	LeadID        string         `json:"lead_id"`
	SourceTool    string         `json:"source_tool"`
	Status        string         `json:"status"`
	ScheduledFor  time.Time      `json:"scheduled_for"`
	PhoneE164     string         `json:"phone_e164"`
	PhoneHash     string         `json:"phone_hash"`
	AgentID       string         `json:"agent_id"`
	FirstMessage  string         `json:"first_message"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CallAgent is one call_agents row: the routing config for a source tool.
// Enabled=false is a kill switch, not an error.
type CallAgent struct {
	SourceTool   string `json:"source_tool"`
	AgentID      string `json:"agent_id"`
	Enabled      bool   `json:"enabled"`
	FirstMessage string `json:"first_message,omitempty"`
}

// EnqueueCallRequest is the POST /functions/v1/enqueue-phonecall payload.
type EnqueueCallRequest struct {
	LeadID     string         `json:"leadId"`
	SourceTool string         `json:"sourceTool"`
	PhoneE164  string         `json:"phoneE164"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// EnqueueCallResponse is the enqueue result. When Enqueued is false, Reason
// says why (duplicate window, agent disabled) and CallRequestID points at the
// existing row when one matched.
type EnqueueCallResponse struct {
	Success       bool   `json:"success"`
	Enqueued      bool   `json:"enqueued"`
	CallRequestID string `json:"callRequestId,omitempty"`
	Status        string `json:"status,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// WebhookReceipt is one wm_webhook_receipts row: an inbound provider callback
// recorded verbatim for admin triage.
type WebhookReceipt struct {
	ReceiptID  string         `json:"receipt_id"`
	Provider   string         `json:"provider"`
	EventType  string         `json:"event_type,omitempty"`
	CallID     string         `json:"call_id,omitempty"`
	StatusCode int            `json:"status_code,omitempty"`
	Body       map[string]any `json:"body,omitempty"`
	ReceivedAt time.Time      `json:"received_at"`
}

// ReceiptFilter narrows the admin receipt listing.
type ReceiptFilter struct {
	Provider string
	Limit    int
	Offset   int
}
