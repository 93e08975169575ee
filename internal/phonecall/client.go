// Package phonecall is the outbound client for the voice-agent provider that
// actually places calls.
package phonecall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// StartCallRequest asks the provider to place one outbound call.
type StartCallRequest struct {
	AgentID      string         `json:"agent_id"`
	PhoneE164    string         `json:"phone_number"`
	FirstMessage string         `json:"first_message,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Client talks to the provider's REST API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// NewClient builds a provider client. Returns an error when the endpoint or
// key is unconfigured, so a misconfigured worker fails at boot rather than on
// the first due call.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("phonecall: PHONECALL_API_URL and PHONECALL_API_KEY required")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// StartCall places a call and returns the provider call id. Transport errors
// and 5xx responses are retried with fibonacci backoff; 4xx responses are
// terminal (the request itself is wrong, retrying cannot fix it).
func (c *Client) StartCall(ctx context.Context, req StartCallRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	var callID string
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseURL+"/v1/calls", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpc.Do(httpReq)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("provider status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("provider status %d: %s", resp.StatusCode, msg)
		}

		var out struct {
			CallID string `json:"call_id"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return err
		}
		callID = out.CallID
		return nil
	})
	if err != nil {
		return "", err
	}
	return callID, nil
}
