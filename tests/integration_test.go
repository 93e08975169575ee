package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

////////////////////////////////////////////////////////////////////////////////
// INTEGRATION TEST SUITE
//
// These tests validate the service end-to-end:
//
//   Client → HTTP API → Auth → Postgres → Query → Response
//
// The service must already be running (for example via docker compose) with
// the call_agents table seeded for the "fair-price" source tool.
//
// Optional environment overrides:
//
//   BASE_URL     default http://localhost:8080
//   SITE_KEY     default wm-site-key-123
//   ADMIN_TOKEN  a bearer token whose email is on the admin allow-list
//
////////////////////////////////////////////////////////////////////////////////

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

// siteKey returns the tracking API key.
func siteKey() string {
	if v := os.Getenv("SITE_KEY"); v != "" {
		return v
	}
	return "wm-site-key-123"
}

// adminToken returns the admin bearer token, or "" when admin tests should
// be skipped.
func adminToken() string {
	return os.Getenv("ADMIN_TOKEN")
}

// unique generates a unique string so tests never collide with previous runs.
func unique(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

////////////////////////////////////////////////////////////////////////////////
// SERVICE READINESS HELPER
//
// waitReady polls /ready until DB + server are ready.
// Prevents flaky failures when containers are still booting.
////////////////////////////////////////////////////////////////////////////////

func waitReady(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(30 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL() + "/ready")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(300 * time.Millisecond)
	}

	t.Fatalf("service not ready after 30s")
}

////////////////////////////////////////////////////////////////////////////////
// GENERIC HTTP HELPERS
////////////////////////////////////////////////////////////////////////////////

// httpGet performs a GET request with optional API key and bearer token.
func httpGet(t *testing.T, apiKey, bearer, path string) (int, []byte) {
	t.Helper()

	req, _ := http.NewRequest("GET", baseURL()+path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

// postJSON performs a POST with JSON body and optional API key.
func postJSON(t *testing.T, apiKey, path string, payload any) (int, []byte) {
	t.Helper()

	b, _ := json.Marshal(payload)

	req, _ := http.NewRequest("POST", baseURL()+path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

////////////////////////////////////////////////////////////////////////////////
// HEALTH & READINESS TESTS
////////////////////////////////////////////////////////////////////////////////

// Health endpoint = liveness check (server process running).
func TestHealth_ReturnsOK(t *testing.T) {
	s, _ := httpGet(t, "", "", "/health")
	if s != http.StatusOK {
		t.Fatalf("health expected 200 got %d", s)
	}
}

// Ready endpoint = dependency readiness (DB reachable).
func TestReady_ReturnsOK(t *testing.T) {
	waitReady(t)
	s, _ := httpGet(t, "", "", "/ready")
	if s != http.StatusOK {
		t.Fatalf("ready expected 200 got %d", s)
	}
}

////////////////////////////////////////////////////////////////////////////////
// TRACKING SURFACE CONTRACT TESTS
////////////////////////////////////////////////////////////////////////////////

// Request without API key must be rejected.
func TestSession_UnauthorizedWithoutAPIKey(t *testing.T) {
	waitReady(t)

	s, _ := postJSON(t, "", "/api/wm/session", map[string]any{"entry_point": "/"})
	if s != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", s)
	}
}

// Bootstrap returns a session id; re-sending it returns the same id.
func TestSession_BootstrapIsIdempotent(t *testing.T) {
	waitReady(t)

	payload := map[string]any{
		"entry_point": "/fair-price-quiz",
		"device_type": "desktop",
		"user_agent":  "integration-test",
	}

	s, b := postJSON(t, siteKey(), "/api/wm/session", payload)
	if s != http.StatusOK {
		t.Fatalf("bootstrap expected 200 got %d: %s", s, b)
	}

	var first struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(b, &first); err != nil || first.SessionID == "" {
		t.Fatalf("bad bootstrap response: %s", b)
	}
	if _, err := uuid.Parse(first.SessionID); err != nil {
		t.Fatalf("session id %q not a UUID", first.SessionID)
	}

	payload["session_id"] = first.SessionID
	_, b2 := postJSON(t, siteKey(), "/api/wm/session", payload)

	var second struct {
		SessionID string `json:"session_id"`
	}
	json.Unmarshal(b2, &second)
	if second.SessionID != first.SessionID {
		t.Fatalf("session id changed on re-send: %q -> %q", first.SessionID, second.SessionID)
	}
}

// Event ingestion is fire-and-forget: 202 with no meaningful body.
func TestEvent_FireAndForget(t *testing.T) {
	waitReady(t)

	_, b := postJSON(t, siteKey(), "/api/wm/session", map[string]any{"entry_point": "/"})
	var boot struct {
		SessionID string `json:"session_id"`
	}
	json.Unmarshal(b, &boot)

	s, _ := postJSON(t, siteKey(), "/api/wm/event", map[string]any{
		"session_id": boot.SessionID,
		"event_name": unique("evt"),
		"page_path":  "/fair-price-quiz",
	})
	if s != http.StatusAccepted {
		t.Fatalf("event expected 202 got %d", s)
	}
}

////////////////////////////////////////////////////////////////////////////////
// CALL QUEUE TESTS
////////////////////////////////////////////////////////////////////////////////

// An unknown source tool has no routing config.
func TestEnqueue_UnknownToolIs400(t *testing.T) {
	waitReady(t)

	s, b := postJSON(t, siteKey(), "/functions/v1/enqueue-phonecall", map[string]any{
		"leadId":     uuid.New().String(),
		"sourceTool": unique("no-such-tool"),
		"phoneE164":  "+13055550133",
	})
	if s != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", s, b)
	}
}

// Two enqueues for the same lead+tool inside the window produce one row; the
// second response echoes the first's callRequestId.
func TestEnqueue_DuplicateWindow(t *testing.T) {
	waitReady(t)

	payload := map[string]any{
		"leadId":     uuid.New().String(),
		"sourceTool": "fair-price",
		"phoneE164":  "+13055550133",
	}

	s, b := postJSON(t, siteKey(), "/functions/v1/enqueue-phonecall", payload)
	if s == http.StatusBadRequest {
		t.Skip("call_agents not seeded for fair-price")
	}
	if s != http.StatusOK {
		t.Fatalf("first enqueue expected 200 got %d: %s", s, b)
	}

	var first struct {
		Enqueued      bool   `json:"enqueued"`
		CallRequestID string `json:"callRequestId"`
	}
	json.Unmarshal(b, &first)
	if first.CallRequestID == "" {
		t.Fatalf("first response missing callRequestId: %s", b)
	}

	_, b2 := postJSON(t, siteKey(), "/functions/v1/enqueue-phonecall", payload)
	var second struct {
		Enqueued      bool   `json:"enqueued"`
		CallRequestID string `json:"callRequestId"`
	}
	json.Unmarshal(b2, &second)

	if second.Enqueued {
		t.Fatal("duplicate was enqueued")
	}
	if first.Enqueued && second.CallRequestID != first.CallRequestID {
		t.Fatalf("duplicate did not echo first id: %q vs %q", second.CallRequestID, first.CallRequestID)
	}
}

////////////////////////////////////////////////////////////////////////////////
// ADMIN SURFACE TESTS
////////////////////////////////////////////////////////////////////////////////

func TestAdmin_UnauthorizedWithoutToken(t *testing.T) {
	waitReady(t)

	s, _ := httpGet(t, "", "", "/functions/v1/admin-webhook-receipts")
	if s != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", s)
	}
}

func TestAdmin_ReceiptListingShape(t *testing.T) {
	waitReady(t)
	if adminToken() == "" {
		t.Skip("ADMIN_TOKEN not set")
	}

	s, b := httpGet(t, "", adminToken(), "/functions/v1/admin-webhook-receipts?limit=5")
	if s != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", s, b)
	}

	var resp struct {
		OK   bool `json:"ok"`
		Meta struct {
			Limit int   `json:"limit"`
			Total int64 `json:"total"`
		} `json:"meta"`
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("bad listing JSON: %v", err)
	}
	if !resp.OK || resp.Meta.Limit != 5 || resp.Results == nil {
		t.Fatalf("bad envelope: %s", b)
	}
}

// Wrong HTTP method on an admin route is 405.
func TestAdmin_WrongMethodIs405(t *testing.T) {
	waitReady(t)
	if adminToken() == "" {
		t.Skip("ADMIN_TOKEN not set")
	}

	req, _ := http.NewRequest("POST", baseURL()+"/functions/v1/crm-leads", bytes.NewReader([]byte("{}")))
	req.Header.Set("Authorization", "Bearer "+adminToken())

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", resp.StatusCode)
	}
}

////////////////////////////////////////////////////////////////////////////////
// CORS TESTS
////////////////////////////////////////////////////////////////////////////////

func TestCORS_PreflightAllowsAnyOrigin(t *testing.T) {
	waitReady(t)

	req, _ := http.NewRequest("OPTIONS", baseURL()+"/api/wm/session", nil)
	req.Header.Set("Origin", "https://some-lander.example")

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight expected 204 got %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("allow-origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
	if resp.Header.Get("Access-Control-Allow-Headers") == "" {
		t.Fatal("allowed-headers list missing")
	}
}
