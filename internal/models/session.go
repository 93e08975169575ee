package models

import "time"

// Session is one wm_sessions row: a browser session plus the attribution
// parameters captured on first page load.
type Session struct {
	SessionID   string    `json:"session_id"`
	VisitorID   string    `json:"visitor_id,omitempty"`
	EntryPoint  string    `json:"entry_point,omitempty"`
	DeviceType  string    `json:"device_type,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	UTMSource   string    `json:"utm_source,omitempty"`
	UTMMedium   string    `json:"utm_medium,omitempty"`
	UTMCampaign string    `json:"utm_campaign,omitempty"`
	UTMTerm     string    `json:"utm_term,omitempty"`
	UTMContent  string    `json:"utm_content,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// SessionBootstrapRequest is the POST /api/wm/session payload. session_id is
// optional; the server assigns one when absent and may return a different id
// than was sent (session merge).
type SessionBootstrapRequest struct {
	SessionID   string `json:"session_id,omitempty"`
	EntryPoint  string `json:"entry_point"`
	DeviceType  string `json:"device_type"`
	UserAgent   string `json:"user_agent"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
}

// SessionBootstrapResponse is returned by POST /api/wm/session.
type SessionBootstrapResponse struct {
	SessionID string `json:"session_id"`
}

// TrackEventRequest is the POST /api/wm/event payload. Points are optional;
// when positive they feed the engagement scorer for the session.
type TrackEventRequest struct {
	SessionID string         `json:"session_id"`
	EventName string         `json:"event_name"`
	ToolName  string         `json:"tool_name,omitempty"`
	PagePath  string         `json:"page_path,omitempty"`
	Points    int            `json:"points,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// SessionSyncRequest is the POST /api/wm/session/sync payload. An empty
// SessionData asks the server to hydrate from the stored profile instead.
type SessionSyncRequest struct {
	SessionID   string         `json:"session_id"`
	SessionData map[string]any `json:"session_data,omitempty"`
	Reason      string         `json:"reason,omitempty"`
}

// SessionSyncResponse reports which direction ran and, for hydrate, the
// stored profile snapshot.
type SessionSyncResponse struct {
	Action      string         `json:"action"` // "synced" | "hydrated" | "skipped"
	SessionData map[string]any `json:"session_data,omitempty"`
}
