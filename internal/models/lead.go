package models

import "time"

// Lead is one wm_leads row. The table carries two identifiers: WmLeadID is
// the primary key, LeadID is the legacy public-facing id that still appears
// in old links and exported CRM sheets.
type Lead struct {
	WmLeadID   string    `json:"wm_lead_id"`
	LeadID     string    `json:"lead_id"`
	SessionID  string    `json:"session_id,omitempty"`
	VisitorID  string    `json:"visitor_id,omitempty"`
	FullName   string    `json:"full_name,omitempty"`
	Email      string    `json:"email,omitempty"`
	PhoneE164  string    `json:"phone_e164,omitempty"`
	ZipCode    string    `json:"zip_code,omitempty"`
	SourceTool string    `json:"source_tool,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LeadResolution is the resolver result. ResolvedVia reports which identifier
// column matched: "primary" (wm_lead_id) or "fallback" (legacy lead_id).
type LeadResolution struct {
	Found         bool   `json:"found"`
	WmLeadID      string `json:"wm_lead_id,omitempty"`
	LeadID        string `json:"lead_id,omitempty"`
	ResolvedVia   string `json:"resolved_via,omitempty"`
	Lead          *Lead  `json:"lead,omitempty"`
	CanonicalPath string `json:"canonical_path,omitempty"`
}

// LeadFilter narrows the admin CRM listing.
type LeadFilter struct {
	Status     string
	SourceTool string
	Limit      int
	Offset     int
}
