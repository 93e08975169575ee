// Package geo resolves US ZIP codes to city/state via an upstream lookup
// service.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"
)

// ErrZipNotFound is the caller-facing "ZIP code not found" state.
var ErrZipNotFound = errors.New("ZIP code not found")

var zipRe = regexp.MustCompile(`^\d{5}$`)

// Location is a resolved ZIP code.
type Location struct {
	City      string `json:"city"`
	StateCode string `json:"stateCode"`
	Country   string `json:"country"`
}

// Client looks up ZIP codes against a zippopotam-style API.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a lookup client. baseURL is e.g.
// "https://api.zippopotam.us/us".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Lookup resolves one ZIP. A malformed or unknown ZIP returns ErrZipNotFound;
// upstream trouble returns the transport error.
func (c *Client) Lookup(ctx context.Context, zip string) (*Location, error) {
	if !zipRe.MatchString(zip) {
		return nil, ErrZipNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+zip, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrZipNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zip lookup: upstream status %d", resp.StatusCode)
	}

	var body struct {
		Country string `json:"country"`
		Places  []struct {
			PlaceName         string `json:"place name"`
			StateAbbreviation string `json:"state abbreviation"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Places) == 0 {
		return nil, ErrZipNotFound
	}

	return &Location{
		City:      body.Places[0].PlaceName,
		StateCode: body.Places[0].StateAbbreviation,
		Country:   body.Country,
	}, nil
}

// Resolver serializes lookups for one consumer, cancelling any superseded
// in-flight lookup when a newer one starts (a user typing a ZIP corrects it
// faster than the upstream answers).
type Resolver struct {
	client *Client

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewResolver wraps a client with supersession.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Lookup starts a lookup, cancelling the previous one if still running. A
// superseded call observes context.Canceled.
func (r *Resolver) Lookup(ctx context.Context, zip string) (*Location, error) {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	defer cancel()
	return r.client.Lookup(ctx, zip)
}
