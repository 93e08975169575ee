package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/windowman/goldenthread/internal/models"
)

const callColumns = `call_request_id, lead_id, source_tool, status, scheduled_for,
	phone_e164, phone_hash, agent_id, first_message, payload, created_at`

func scanCall(row pgx.Row) (*models.PendingCall, error) {
	var (
		c           models.PendingCall
		payloadJSON []byte
	)
	err := row.Scan(
		&c.CallRequestID, &c.LeadID, &c.SourceTool, &c.Status, &c.ScheduledFor,
		&c.PhoneE164, &c.PhoneHash, &c.AgentID, &c.FirstMessage, &payloadJSON, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &c.Payload); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// FindRecentCall returns the newest pending/processing/called row for the
// (lead, tool) pair created at or after since, or ErrNotFound. This is the
// enqueue idempotency window check.
func (p *PostgresStore) FindRecentCall(ctx context.Context, leadID, sourceTool string, since time.Time) (*models.PendingCall, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+callColumns+`
		FROM pending_calls
		WHERE lead_id = $1
		  AND source_tool = $2
		  AND status IN ('pending','processing','called')
		  AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`, leadID, sourceTool, since)
	return scanCall(row)
}

// GetCallAgent returns the routing config for a source tool, or ErrNotFound.
func (p *PostgresStore) GetCallAgent(ctx context.Context, sourceTool string) (*models.CallAgent, error) {
	var a models.CallAgent
	err := p.pool.QueryRow(ctx, `
		SELECT source_tool, agent_id, enabled, first_message
		FROM call_agents WHERE source_tool = $1
	`, sourceTool).Scan(&a.SourceTool, &a.AgentID, &a.Enabled, &a.FirstMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// InsertPendingCall appends one queue row.
func (p *PostgresStore) InsertPendingCall(ctx context.Context, c models.PendingCall) error {
	if c.Payload == nil {
		c.Payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(c.Payload)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO pending_calls(
			call_request_id, lead_id, source_tool, status, scheduled_for,
			phone_e164, phone_hash, agent_id, first_message, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, c.CallRequestID, c.LeadID, c.SourceTool, c.Status, c.ScheduledFor,
		c.PhoneE164, c.PhoneHash, c.AgentID, c.FirstMessage, payloadJSON)

	return err
}

// ClaimDueCalls atomically moves up to limit due pending rows to processing
// and returns them. The UPDATE ... RETURNING keeps two workers from claiming
// the same row.
func (p *PostgresStore) ClaimDueCalls(ctx context.Context, now time.Time, limit int) ([]models.PendingCall, error) {
	rows, err := p.pool.Query(ctx, `
		UPDATE pending_calls
		SET status = 'processing'
		WHERE call_request_id IN (
			SELECT call_request_id FROM pending_calls
			WHERE status = 'pending' AND scheduled_for <= $1
			ORDER BY scheduled_for
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+callColumns,
		now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PendingCall
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// SetCallStatus records a terminal status for a queue row.
func (p *PostgresStore) SetCallStatus(ctx context.Context, callRequestID, status string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE pending_calls SET status = $2 WHERE call_request_id = $1`,
		callRequestID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
