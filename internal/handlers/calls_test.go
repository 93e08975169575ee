package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/windowman/goldenthread/internal/calls"
	"github.com/windowman/goldenthread/internal/ledger"
	"github.com/windowman/goldenthread/internal/models"
	"github.com/windowman/goldenthread/internal/store"
)

type fakeCallStore struct {
	agent    *models.CallAgent
	recent   *models.PendingCall
	inserted []models.PendingCall
}

func (f *fakeCallStore) FindRecentCall(_ context.Context, _, _ string, _ time.Time) (*models.PendingCall, error) {
	if f.recent == nil {
		return nil, store.ErrNotFound
	}
	return f.recent, nil
}

func (f *fakeCallStore) GetCallAgent(_ context.Context, _ string) (*models.CallAgent, error) {
	if f.agent == nil {
		return nil, store.ErrNotFound
	}
	return f.agent, nil
}

func (f *fakeCallStore) InsertPendingCall(_ context.Context, c models.PendingCall) error {
	f.inserted = append(f.inserted, c)
	return nil
}

type nullEventStore struct{ events []models.LedgerEvent }

func (n *nullEventStore) InsertLedgerEvent(_ context.Context, e models.LedgerEvent) error {
	n.events = append(n.events, e)
	return nil
}

func callRouter(f *fakeCallStore, es *nullEventStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	lw, _ := ledger.NewWriter(es, slog.Default())
	r := gin.New()
	RegisterCallRoutes(r, calls.NewEnqueuer(f), lw)
	return r
}

func postEnqueue(t *testing.T, r *gin.Engine, body any) (*httptest.ResponseRecorder, models.EnqueueCallResponse) {
	t.Helper()
	b, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/enqueue-phonecall", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	var resp models.EnqueueCallResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func enqueueBody() map[string]any {
	return map[string]any{
		"leadId":     "11111111-2222-3333-4444-555555555555",
		"sourceTool": "fair-price",
		"phoneE164":  "+13055550133",
	}
}

func TestEnqueueEndpoint_Success(t *testing.T) {
	f := &fakeCallStore{agent: &models.CallAgent{SourceTool: "fair-price", AgentID: "agent-7", Enabled: true}}
	es := &nullEventStore{}

	w, resp := postEnqueue(t, callRouter(f, es), enqueueBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if !resp.Enqueued || resp.CallRequestID == "" {
		t.Fatalf("response: %+v", resp)
	}
	if len(es.events) != 1 || es.events[0].EventName != models.EventCallEnqueued {
		t.Fatalf("ledger events: %+v", es.events)
	}
}

func TestEnqueueEndpoint_ValidationIs400(t *testing.T) {
	body := enqueueBody()
	body["leadId"] = "nope"

	w, _ := postEnqueue(t, callRouter(&fakeCallStore{}, &nullEventStore{}), body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestEnqueueEndpoint_NoAgentConfigIs400(t *testing.T) {
	w, _ := postEnqueue(t, callRouter(&fakeCallStore{}, &nullEventStore{}), enqueueBody())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var e struct {
		Error string `json:"error"`
	}
	json.Unmarshal(w.Body.Bytes(), &e)
	if e.Error != "no_agent_config" {
		t.Fatalf("error = %q", e.Error)
	}
}

func TestEnqueueEndpoint_DisabledAgentNoLedgerEvent(t *testing.T) {
	f := &fakeCallStore{agent: &models.CallAgent{SourceTool: "fair-price", AgentID: "agent-7", Enabled: false}}
	es := &nullEventStore{}

	w, resp := postEnqueue(t, callRouter(f, es), enqueueBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Enqueued || resp.Reason != "agent_disabled" {
		t.Fatalf("response: %+v", resp)
	}
	if len(es.events) != 0 {
		t.Fatalf("kill switch wrote ledger events: %+v", es.events)
	}
}

func TestEnqueueEndpoint_DuplicateEchoesFirstID(t *testing.T) {
	f := &fakeCallStore{
		agent:  &models.CallAgent{SourceTool: "fair-price", AgentID: "agent-7", Enabled: true},
		recent: &models.PendingCall{CallRequestID: "first-id", Status: models.CallStatusPending},
	}
	es := &nullEventStore{}

	w, resp := postEnqueue(t, callRouter(f, es), enqueueBody())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if resp.Enqueued || resp.CallRequestID != "first-id" {
		t.Fatalf("response: %+v", resp)
	}
	if len(f.inserted) != 0 {
		t.Fatal("duplicate inserted a row")
	}
}
