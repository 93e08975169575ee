// Package calls owns creation of pending_calls rows: validation, the
// duplicate window check, agent routing and the schedule offset. Everything
// after insertion belongs to the dispatch worker.
package calls

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/windowman/goldenthread/internal/models"
	"github.com/windowman/goldenthread/internal/store"
)

const (
	// idempotencyWindow bounds the duplicate check. Two requests for the same
	// lead+tool inside this window collapse to the first row.
	idempotencyWindow = 10 * time.Minute

	// scheduleDelay is how far in the future new calls are scheduled, on the
	// server clock. Gives the lead a moment before the phone rings.
	scheduleDelay = 2 * time.Minute

	defaultFirstMessage = "Hi! This is the Window Man team following up on your window quote review."

	maxPhoneLen = 17 // "+" plus up to 15 digits, some slack for formatting
	minPhoneLen = 8
)

// ErrNoAgentConfig means the source tool has no usable routing config (400).
var ErrNoAgentConfig = errors.New("no_agent_config")

// ValidationError is a 400-class input problem.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// CallStore is the subset of the store the enqueuer needs.
type CallStore interface {
	FindRecentCall(ctx context.Context, leadID, sourceTool string, since time.Time) (*models.PendingCall, error)
	GetCallAgent(ctx context.Context, sourceTool string) (*models.CallAgent, error)
	InsertPendingCall(ctx context.Context, c models.PendingCall) error
}

// Enqueuer creates pending call rows.
type Enqueuer struct {
	store CallStore
	now   func() time.Time
}

// NewEnqueuer builds an enqueuer over the given store.
func NewEnqueuer(st CallStore) *Enqueuer {
	return &Enqueuer{store: st, now: time.Now}
}

// Enqueue runs the duplicate-window check, routing lookup and insert.
//
// Known race: two near-simultaneous duplicates can both pass the window check
// and double-insert. The window query is the only guard; human-paced UI
// traffic makes the overlap rare and a double call is recoverable.
func (e *Enqueuer) Enqueue(ctx context.Context, req models.EnqueueCallRequest) (models.EnqueueCallResponse, error) {
	if _, err := uuid.Parse(req.LeadID); err != nil {
		return models.EnqueueCallResponse{}, &ValidationError{Msg: "leadId must be a UUID"}
	}
	if req.SourceTool == "" {
		return models.EnqueueCallResponse{}, &ValidationError{Msg: "sourceTool required"}
	}
	if n := len(req.PhoneE164); n < minPhoneLen || n > maxPhoneLen {
		return models.EnqueueCallResponse{}, &ValidationError{Msg: "phoneE164 out of range"}
	}

	now := e.now().UTC()

	// 1. Duplicate window: echo the existing row instead of inserting.
	existing, err := e.store.FindRecentCall(ctx, req.LeadID, req.SourceTool, now.Add(-idempotencyWindow))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.EnqueueCallResponse{}, fmt.Errorf("idempotency check: %w", err)
	}
	if existing != nil {
		return models.EnqueueCallResponse{
			Success:       true,
			Enqueued:      false,
			CallRequestID: existing.CallRequestID,
			Status:        existing.Status,
			Reason:        "duplicate_window",
		}, nil
	}

	// 2. Routing lookup. A disabled agent is a kill switch, not an error.
	agent, err := e.store.GetCallAgent(ctx, req.SourceTool)
	if errors.Is(err, store.ErrNotFound) {
		return models.EnqueueCallResponse{}, ErrNoAgentConfig
	}
	if err != nil {
		return models.EnqueueCallResponse{}, fmt.Errorf("agent lookup: %w", err)
	}
	if agent.AgentID == "" {
		return models.EnqueueCallResponse{}, ErrNoAgentConfig
	}
	if !agent.Enabled {
		return models.EnqueueCallResponse{
			Success:  true,
			Enqueued: false,
			Reason:   "agent_disabled",
		}, nil
	}

	firstMessage := agent.FirstMessage
	if firstMessage == "" {
		firstMessage = defaultFirstMessage
	}

	call := models.PendingCall{
		CallRequestID: uuid.New().String(),
		LeadID:        req.LeadID,
		SourceTool:    req.SourceTool,
		Status:        models.CallStatusPending,
		ScheduledFor:  now.Add(scheduleDelay),
		PhoneE164:     req.PhoneE164,
		PhoneHash:     HashPhone(req.PhoneE164),
		AgentID:       agent.AgentID,
		FirstMessage:  firstMessage,
		Payload:       req.Payload,
	}

	if err := e.store.InsertPendingCall(ctx, call); err != nil {
		return models.EnqueueCallResponse{}, fmt.Errorf("enqueue_failed: %w", err)
	}

	return models.EnqueueCallResponse{
		Success:       true,
		Enqueued:      true,
		CallRequestID: call.CallRequestID,
		Status:        call.Status,
	}, nil
}

// HashPhone fills the NOT NULL phone_hash column, independent of the raw
// number.
func HashPhone(phoneE164 string) string {
	sum := sha256.Sum256([]byte(phoneE164))
	return hex.EncodeToString(sum[:])
}
