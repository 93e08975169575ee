package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/windowman/goldenthread/internal/models"
)

const leadColumns = `wm_lead_id, lead_id,
	COALESCE(session_id::text,''), COALESCE(visitor_id::text,''),
	full_name, email, phone_e164, zip_code, source_tool, status, created_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.WmLeadID, &l.LeadID, &l.SessionID, &l.VisitorID,
		&l.FullName, &l.Email, &l.PhoneE164, &l.ZipCode,
		&l.SourceTool, &l.Status, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLeadByPrimaryID looks up a lead by its canonical wm_lead_id.
func (p *PostgresStore) GetLeadByPrimaryID(ctx context.Context, id string) (*models.Lead, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM wm_leads WHERE wm_lead_id = $1`, id)
	return scanLead(row)
}

// GetLeadByLegacyID looks up a lead by the legacy public lead_id column.
func (p *PostgresStore) GetLeadByLegacyID(ctx context.Context, id string) (*models.Lead, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM wm_leads WHERE lead_id = $1`, id)
	return scanLead(row)
}

// ListLeads returns a filtered page of leads plus the unpaged total.
func (p *PostgresStore) ListLeads(ctx context.Context, f models.LeadFilter) ([]models.Lead, int64, error) {
	where := "TRUE"
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.SourceTool != "" {
		args = append(args, f.SourceTool)
		where += fmt.Sprintf(" AND source_tool = $%d", len(args))
	}

	var total int64
	if err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM wm_leads WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := p.pool.Query(ctx,
		`SELECT `+leadColumns+` FROM wm_leads WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}
