package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/windowman/goldenthread/internal/models"
)

type fakeEventStore struct {
	err    error
	events []models.LedgerEvent
}

func (f *fakeEventStore) InsertLedgerEvent(_ context.Context, e models.LedgerEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func validParams() Params {
	return Params{
		EventName:    "QuizCompleted",
		SourceTool:   "fair-price",
		SourceSystem: "web",
		IngestedBy:   "api",
		SessionID:    "11111111-2222-3333-4444-555555555555",
	}
}

func TestNewWriter_RequiresStore(t *testing.T) {
	if _, err := NewWriter(nil, slog.Default()); err == nil {
		t.Fatal("nil store accepted")
	}
}

func TestWrite_AppendsRowWithFreshID(t *testing.T) {
	f := &fakeEventStore{}
	w, err := NewWriter(f, slog.Default())
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	res := w.Write(context.Background(), validParams())
	if !res.Success || res.Err != nil {
		t.Fatalf("unexpected result: %+v", res)
	}
	if _, err := uuid.Parse(res.EventID); err != nil {
		t.Fatalf("event id %q not a UUID", res.EventID)
	}
	if len(f.events) != 1 || f.events[0].EventID != res.EventID {
		t.Fatalf("stored events: %+v", f.events)
	}
}

// A failed insert still returns the minted event id so callers can reference it.
func TestWrite_FailureReturnsResultNotPanic(t *testing.T) {
	f := &fakeEventStore{err: errors.New("permission denied for table wm_event_log")}
	w, _ := NewWriter(f, slog.Default())

	res := w.Write(context.Background(), validParams())
	if res.Success {
		t.Fatal("success reported despite insert failure")
	}
	if res.EventID == "" {
		t.Fatal("event id missing from failure result")
	}
	if res.Err == nil {
		t.Fatal("failure signal lost")
	}
}

func TestWrite_MissingRequiredFieldRejected(t *testing.T) {
	f := &fakeEventStore{}
	w, _ := NewWriter(f, slog.Default())

	p := validParams()
	p.SourceSystem = ""

	res := w.Write(context.Background(), p)
	if res.Success {
		t.Fatal("write accepted without source_system")
	}
	if len(f.events) != 0 {
		t.Fatal("invalid event reached the store")
	}
}
