// Package worker drains the pending_calls queue: claims due rows, places the
// call through the voice-agent provider and records the outcome.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/windowman/goldenthread/internal/ledger"
	"github.com/windowman/goldenthread/internal/models"
	"github.com/windowman/goldenthread/internal/phonecall"
)

// DispatchStore defines the queue operations the dispatcher needs.
// Implemented by store.PostgresStore.
type DispatchStore interface {
	// ClaimDueCalls moves up to limit due pending rows to processing.
	ClaimDueCalls(ctx context.Context, now time.Time, limit int) ([]models.PendingCall, error)
	// SetCallStatus records a terminal status for a claimed row.
	SetCallStatus(ctx context.Context, callRequestID, status string) error
}

// Caller places one outbound call. Implemented by phonecall.Client.
type Caller interface {
	StartCall(ctx context.Context, req phonecall.StartCallRequest) (string, error)
}

// Dispatcher polls the queue on an interval and dispatches due calls.
type Dispatcher struct {
	store    DispatchStore
	caller   Caller
	ledger   *ledger.Writer
	interval time.Duration
	batch    int
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store DispatchStore, caller Caller, lw *ledger.Writer, interval time.Duration, batch int) *Dispatcher {
	return &Dispatcher{
		store:    store,
		caller:   caller,
		ledger:   lw,
		interval: interval,
		batch:    batch,
	}
}

// Run starts the dispatch loop. Blocks until ctx is cancelled.
//
// The first tick is waited out rather than firing immediately: rows are
// scheduled minutes in the future, so there is nothing due at boot.
func (d *Dispatcher) Run(ctx context.Context) {
	slog.Info("call dispatcher started",
		"component", "worker",
		"worker", "call-dispatcher",
		"interval", d.interval.String(),
		"batch", d.batch,
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("call dispatcher stopped", "component", "worker")
			return
		case <-ticker.C:
			d.processDue(ctx)
		}
	}
}

// processDue claims and dispatches one batch, continuing on individual
// failures so one bad row cannot wedge the queue.
func (d *Dispatcher) processDue(ctx context.Context) {
	due, err := d.store.ClaimDueCalls(ctx, time.Now().UTC(), d.batch)
	if err != nil {
		slog.Error("failed to claim due calls",
			"component", "worker",
			"error", err,
		)
		return
	}

	for _, call := range due {
		d.dispatch(ctx, call)
	}

	if len(due) > 0 {
		slog.Debug("dispatch cycle completed",
			"component", "worker",
			"dispatched", len(due),
		)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, call models.PendingCall) {
	providerCallID, err := d.caller.StartCall(ctx, phonecall.StartCallRequest{
		AgentID:      call.AgentID,
		PhoneE164:    call.PhoneE164,
		FirstMessage: call.FirstMessage,
		Metadata: map[string]any{
			"call_request_id": call.CallRequestID,
			"lead_id":         call.LeadID,
			"source_tool":     call.SourceTool,
		},
	})

	status := models.CallStatusCalled
	eventName := models.EventCallDispatched
	meta := models.CallOutcomeMeta{
		CallRequestID: call.CallRequestID,
		AgentID:       call.AgentID,
	}
	if err != nil {
		status = models.CallStatusFailed
		eventName = models.EventCallFailed
		meta.ProviderError = err.Error()
		slog.Error("call dispatch failed",
			"component", "worker",
			"call_request_id", call.CallRequestID,
			"lead_id", call.LeadID,
			"error", err,
		)
	} else {
		slog.Info("call dispatched",
			"component", "worker",
			"call_request_id", call.CallRequestID,
			"provider_call_id", providerCallID,
		)
	}

	if err := d.store.SetCallStatus(ctx, call.CallRequestID, status); err != nil {
		slog.Error("failed to record call status",
			"component", "worker",
			"call_request_id", call.CallRequestID,
			"status", status,
			"error", err,
		)
	}

	d.ledger.Write(ctx, ledger.Params{
		EventName:    eventName,
		SourceTool:   call.SourceTool,
		SourceSystem: "call-dispatcher",
		IngestedBy:   "worker",
		LeadID:       call.LeadID,
		Metadata:     meta.Map(),
	})
}
