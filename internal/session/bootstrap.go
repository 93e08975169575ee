// Package session owns session bootstrap and the profile sync/hydrate path.
package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/windowman/goldenthread/internal/models"
)

// BootstrapStore is the subset of the store bootstrap needs.
type BootstrapStore interface {
	UpsertSession(ctx context.Context, s models.Session) error
}

// Bootstrap registers a session and returns the server-assigned id. A valid
// client-sent id is kept (re-sending is an idempotent upsert); a missing or
// malformed one gets a fresh UUID, so the returned id can differ from what
// the client sent.
func Bootstrap(ctx context.Context, st BootstrapStore, visitorID string, req models.SessionBootstrapRequest) (string, error) {
	sessionID := req.SessionID
	if _, err := uuid.Parse(sessionID); err != nil {
		sessionID = uuid.New().String()
	}

	err := st.UpsertSession(ctx, models.Session{
		SessionID:   sessionID,
		VisitorID:   visitorID,
		EntryPoint:  req.EntryPoint,
		DeviceType:  req.DeviceType,
		UserAgent:   req.UserAgent,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
		Referrer:    req.Referrer,
	})
	if err != nil {
		return "", err
	}
	return sessionID, nil
}
