package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/33101":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"post code": "33101",
				"country": "United States",
				"places": [{"place name": "Miami", "state abbreviation": "FL"}]
			}`))
		case "/99999":
			// Slow response; returns early when the client goes away.
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestLookup_KnownZip(t *testing.T) {
	srv := newUpstream(t)
	defer srv.Close()

	loc, err := NewClient(srv.URL).Lookup(context.Background(), "33101")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.City != "Miami" || loc.StateCode != "FL" || loc.Country != "United States" {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestLookup_UnknownZip(t *testing.T) {
	srv := newUpstream(t)
	defer srv.Close()

	loc, err := NewClient(srv.URL).Lookup(context.Background(), "00000")
	if !errors.Is(err, ErrZipNotFound) {
		t.Fatalf("err = %v, want ErrZipNotFound", err)
	}
	if loc != nil {
		t.Fatalf("location returned for unknown zip: %+v", loc)
	}
}

// Malformed input never reaches the upstream.
func TestLookup_MalformedZip(t *testing.T) {
	c := NewClient("http://127.0.0.1:0") // unreachable; must not be contacted

	if _, err := c.Lookup(context.Background(), "miami"); !errors.Is(err, ErrZipNotFound) {
		t.Fatalf("err = %v, want ErrZipNotFound", err)
	}
	if _, err := c.Lookup(context.Background(), "123456"); !errors.Is(err, ErrZipNotFound) {
		t.Fatalf("err = %v, want ErrZipNotFound", err)
	}
}

// Starting a new lookup cancels the superseded in-flight one.
func TestResolver_SupersededLookupCancelled(t *testing.T) {
	srv := newUpstream(t)
	defer srv.Close()

	r := NewResolver(NewClient(srv.URL))

	firstErr := make(chan error, 1)
	go func() {
		_, err := r.Lookup(context.Background(), "99999")
		firstErr <- err
	}()

	// Give the first request time to start, then supersede it.
	time.Sleep(50 * time.Millisecond)
	if _, err := r.Lookup(context.Background(), "33101"); err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}

	select {
	case <-firstErr:
	case <-time.After(3 * time.Second):
		t.Fatal("first lookup still pending after supersession")
	}
}
