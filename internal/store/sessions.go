package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/windowman/goldenthread/internal/models"
)

// UpsertSession persists a session row. Re-sending the same session is an
// idempotent upsert: attribution fields are refreshed, created_at is kept.
func (p *PostgresStore) UpsertSession(ctx context.Context, s models.Session) error {
	if s.SessionID == "" {
		return errors.New("session_id required")
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO wm_sessions(
			session_id, visitor_id, entry_point, device_type, user_agent,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content, referrer)
		VALUES ($1, NULLIF($2,'')::uuid, $3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (session_id) DO UPDATE SET
			visitor_id   = COALESCE(EXCLUDED.visitor_id, wm_sessions.visitor_id),
			entry_point  = EXCLUDED.entry_point,
			device_type  = EXCLUDED.device_type,
			user_agent   = EXCLUDED.user_agent,
			utm_source   = EXCLUDED.utm_source,
			utm_medium   = EXCLUDED.utm_medium,
			utm_campaign = EXCLUDED.utm_campaign,
			utm_term     = EXCLUDED.utm_term,
			utm_content  = EXCLUDED.utm_content,
			referrer     = EXCLUDED.referrer
	`, s.SessionID, s.VisitorID, s.EntryPoint, s.DeviceType, s.UserAgent,
		s.UTMSource, s.UTMMedium, s.UTMCampaign, s.UTMTerm, s.UTMContent, s.Referrer)

	return err
}

// SessionExists reports whether a session row is already known.
func (p *PostgresStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var one int
	err := p.pool.QueryRow(ctx,
		`SELECT 1 FROM wm_sessions WHERE session_id = $1`, sessionID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpsertProfileSessionData replaces the stored session snapshot for a user
// profile and stamps synced_at.
func (p *PostgresStore) UpsertProfileSessionData(ctx context.Context, email string, sessionData map[string]any) error {
	if email == "" {
		return errors.New("email required")
	}
	if sessionData == nil {
		sessionData = map[string]any{}
	}

	dataJSON, err := json.Marshal(sessionData)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO wm_profiles(email, session_data, synced_at)
		VALUES ($1, $2, now())
		ON CONFLICT (email) DO UPDATE SET
			session_data = EXCLUDED.session_data,
			synced_at    = now()
	`, email, dataJSON)

	return err
}

// GetProfileSessionData returns the stored session snapshot for a profile, or
// ErrNotFound when the profile has never synced.
func (p *PostgresStore) GetProfileSessionData(ctx context.Context, email string) (map[string]any, error) {
	var dataJSON []byte
	err := p.pool.QueryRow(ctx,
		`SELECT session_data FROM wm_profiles WHERE email = $1`, email).Scan(&dataJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := json.Unmarshal(dataJSON, &out); err != nil {
		return nil, err
	}
	return out, nil
}
