// Package leads resolves inbound lead identifiers against the two id columns
// of wm_leads.
package leads

import (
	"context"
	"errors"
	"regexp"

	"github.com/windowman/goldenthread/internal/models"
	"github.com/windowman/goldenthread/internal/store"
)

// uuidRe gates resolver input before any query runs.
var uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// LeadStore is the subset of the store the resolver needs.
type LeadStore interface {
	GetLeadByPrimaryID(ctx context.Context, id string) (*models.Lead, error)
	GetLeadByLegacyID(ctx context.Context, id string) (*models.Lead, error)
}

// Resolve maps an arbitrary inbound id to a canonical lead. Historical links
// may embed either the primary wm_lead_id or the legacy public lead_id, so a
// primary-key miss falls through to the legacy column rather than 404ing a
// valid old link. Database errors are returned, never masked as not-found.
func Resolve(ctx context.Context, st LeadStore, inputID string) (models.LeadResolution, error) {
	if !uuidRe.MatchString(inputID) {
		return models.LeadResolution{Found: false}, nil
	}

	lead, err := st.GetLeadByPrimaryID(ctx, inputID)
	via := "primary"
	if errors.Is(err, store.ErrNotFound) {
		lead, err = st.GetLeadByLegacyID(ctx, inputID)
		via = "fallback"
	}
	if errors.Is(err, store.ErrNotFound) {
		return models.LeadResolution{Found: false}, nil
	}
	if err != nil {
		return models.LeadResolution{}, err
	}

	return models.LeadResolution{
		Found:         true,
		WmLeadID:      lead.WmLeadID,
		LeadID:        lead.LeadID,
		ResolvedVia:   via,
		Lead:          lead,
		CanonicalPath: "/leads/" + lead.WmLeadID,
	}, nil
}
