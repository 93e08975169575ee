package models

import "time"

// Well-known ledger event names. Anything else is free-form.
const (
	EventHighIntentUser    = "HighIntentUser"
	EventQualifiedProspect = "QualifiedProspect"
	EventCallEnqueued      = "CallEnqueued"
	EventCallDispatched    = "CallDispatched"
	EventCallFailed        = "CallFailed"
)

// LedgerEvent is one wm_event_log row. Append-only: rows are never updated or
// deleted by this service.
type LedgerEvent struct {
	EventID      string         `json:"event_id"`
	EventName    string         `json:"event_name"`
	SourceTool   string         `json:"source_tool"`
	SourceSystem string         `json:"source_system"`
	IngestedBy   string         `json:"ingested_by"`
	ClientID     string         `json:"client_id,omitempty"`
	LeadID       string         `json:"lead_id,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	PagePath     string         `json:"page_path,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// EngagementThresholdMeta is the metadata shape for HighIntentUser and
// QualifiedProspect events. Known event shapes get a typed constructor; the
// Metadata map stays the wire format so genuinely open-ended callers can still
// attach arbitrary fields.
type EngagementThresholdMeta struct {
	TotalScore int    `json:"total_score"`
	Threshold  int    `json:"threshold"`
	LastAction string `json:"last_action,omitempty"`
}

// Map renders the typed metadata as the free-form wire shape.
func (m EngagementThresholdMeta) Map() map[string]any {
	out := map[string]any{
		"total_score": m.TotalScore,
		"threshold":   m.Threshold,
	}
	if m.LastAction != "" {
		out["last_action"] = m.LastAction
	}
	return out
}

// CallOutcomeMeta is the metadata shape for CallDispatched/CallFailed events.
type CallOutcomeMeta struct {
	CallRequestID string `json:"call_request_id"`
	AgentID       string `json:"agent_id,omitempty"`
	ProviderError string `json:"provider_error,omitempty"`
}

// Map renders the typed metadata as the free-form wire shape.
func (m CallOutcomeMeta) Map() map[string]any {
	out := map[string]any{"call_request_id": m.CallRequestID}
	if m.AgentID != "" {
		out["agent_id"] = m.AgentID
	}
	if m.ProviderError != "" {
		out["provider_error"] = m.ProviderError
	}
	return out
}
