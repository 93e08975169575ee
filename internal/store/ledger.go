package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/windowman/goldenthread/internal/models"
)

// InsertLedgerEvent appends one wm_event_log row. The event_id is supplied by
// the caller so it can be referenced even when the write fails.
func (p *PostgresStore) InsertLedgerEvent(ctx context.Context, e models.LedgerEvent) error {
	if e.EventID == "" || e.EventName == "" || e.SourceTool == "" ||
		e.SourceSystem == "" || e.IngestedBy == "" {
		return errors.New("event_id/event_name/source_tool/source_system/ingested_by required")
	}

	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO wm_event_log(
			event_id, event_name, source_tool, source_system, ingested_by,
			client_id, lead_id, session_id, page_path, metadata)
		VALUES ($1,$2,$3,$4,$5,
			NULLIF($6,''), NULLIF($7,'')::uuid, NULLIF($8,'')::uuid, NULLIF($9,''), $10)
	`, e.EventID, e.EventName, e.SourceTool, e.SourceSystem, e.IngestedBy,
		e.ClientID, e.LeadID, e.SessionID, e.PagePath, metaJSON)

	return err
}
