package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/windowman/goldenthread/internal/models"
)

// InsertWebhookReceipt records one inbound provider callback verbatim.
func (p *PostgresStore) InsertWebhookReceipt(ctx context.Context, r models.WebhookReceipt) error {
	if r.Body == nil {
		r.Body = map[string]any{}
	}
	bodyJSON, err := json.Marshal(r.Body)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO wm_webhook_receipts(
			receipt_id, provider, event_type, call_id, status_code, body)
		VALUES ($1,$2,$3, NULLIF($4,'')::uuid, $5, $6)
	`, r.ReceiptID, r.Provider, r.EventType, r.CallID, r.StatusCode, bodyJSON)

	return err
}

// ListWebhookReceipts returns a filtered page of receipts, newest first, plus
// the unpaged total.
func (p *PostgresStore) ListWebhookReceipts(ctx context.Context, f models.ReceiptFilter) ([]models.WebhookReceipt, int64, error) {
	where := "TRUE"
	args := []any{}
	if f.Provider != "" {
		args = append(args, f.Provider)
		where += fmt.Sprintf(" AND provider = $%d", len(args))
	}

	var total int64
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wm_webhook_receipts WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := p.pool.Query(ctx, `
		SELECT receipt_id, provider, event_type, COALESCE(call_id::text,''),
		       status_code, body, received_at
		FROM wm_webhook_receipts WHERE `+where+
		fmt.Sprintf(` ORDER BY received_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.WebhookReceipt
	for rows.Next() {
		var (
			r        models.WebhookReceipt
			bodyJSON []byte
		)
		if err := rows.Scan(&r.ReceiptID, &r.Provider, &r.EventType, &r.CallID,
			&r.StatusCode, &bodyJSON, &r.ReceivedAt); err != nil {
			return nil, 0, err
		}
		if len(bodyJSON) > 0 {
			if err := json.Unmarshal(bodyJSON, &r.Body); err != nil {
				return nil, 0, err
			}
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}
