// Package ledger appends rows to the wm_event_log audit table. Writes are
// best-effort: callers get a result value, never a panic or an error that
// would fail their own request.
package ledger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/windowman/goldenthread/internal/models"
)

// EventStore is the subset of the store the writer needs. In production this
// is the service-role pool: the ledger takes writes from every handler in the
// system, so it cannot sit behind per-caller row security.
type EventStore interface {
	InsertLedgerEvent(ctx context.Context, e models.LedgerEvent) error
}

// Params describes one ledger event. EventName, SourceTool, SourceSystem and
// IngestedBy are required; the rest are optional correlation fields.
type Params struct {
	EventName    string
	SourceTool   string
	SourceSystem string
	IngestedBy   string
	ClientID     string
	LeadID       string
	SessionID    string
	PagePath     string
	Metadata     map[string]any
}

// Result reports the outcome of a write. EventID is always set, so the caller
// can reference the event even when the insert later failed.
type Result struct {
	Success bool
	EventID string
	Err     error
}

// Writer appends ledger events.
type Writer struct {
	store EventStore
	log   *slog.Logger
}

// NewWriter builds a ledger writer. The store must be backed by service-role
// credentials; a nil store is a configuration error surfaced at boot, not a
// degraded-write mode.
func NewWriter(store EventStore, log *slog.Logger) (*Writer, error) {
	if store == nil {
		return nil, errors.New("ledger: service-role store required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Writer{store: store, log: log}, nil
}

// Write appends one event. The event id is minted here, client-side, before
// the insert. Failures are logged verbosely and reported in the result.
func (w *Writer) Write(ctx context.Context, p Params) Result {
	eventID := uuid.New().String()

	if p.EventName == "" || p.SourceTool == "" || p.SourceSystem == "" || p.IngestedBy == "" {
		err := errors.New("ledger: event_name, source_tool, source_system, ingested_by required")
		w.log.Error("ledger write rejected",
			"component", "ledger",
			"event_id", eventID,
			"event_name", p.EventName,
			"error", err,
		)
		return Result{Success: false, EventID: eventID, Err: err}
	}

	err := w.store.InsertLedgerEvent(ctx, models.LedgerEvent{
		EventID:      eventID,
		EventName:    p.EventName,
		SourceTool:   p.SourceTool,
		SourceSystem: p.SourceSystem,
		IngestedBy:   p.IngestedBy,
		ClientID:     p.ClientID,
		LeadID:       p.LeadID,
		SessionID:    p.SessionID,
		PagePath:     p.PagePath,
		Metadata:     p.Metadata,
	})
	if err != nil {
		w.log.Error("ledger write failed",
			"component", "ledger",
			"event_id", eventID,
			"event_name", p.EventName,
			"source_tool", p.SourceTool,
			"lead_id", p.LeadID,
			"session_id", p.SessionID,
			"error", err,
		)
		return Result{Success: false, EventID: eventID, Err: err}
	}

	return Result{Success: true, EventID: eventID}
}
