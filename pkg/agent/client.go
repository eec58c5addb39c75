// Package agent is the HTTP client for the external agent service. The
// service is a black box: it accepts a chat message and emits newline-
// delimited JSON events on a chunked stream. This package only moves bytes
// and companion request/response shapes — framing and classification live in
// pkg/stream.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Target identifies one upstream agent service for one call. BaseURL is
// required; AgentID and APIKey are optional.
type Target struct {
	BaseURL string
	AgentID string
	APIKey  string
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent service returned HTTP %d", e.Code)
}

// ErrNoBaseURL is returned when neither the static config nor the request
// supplied an upstream base address.
var ErrNoBaseURL = errors.New("agent base URL is not configured")

// Client talks to the upstream agent service.
//
// The streaming call deliberately uses a transport without a client-level
// timeout — the exchange ceiling is enforced via the caller's context, and a
// fixed http.Client timeout would kill long streams. Control calls get their
// own short-timeout client.
type Client struct {
	streamClient  *http.Client
	controlClient *http.Client
}

// NewClient creates a client. controlTimeout bounds the non-streaming
// companion calls (send, status, stop).
func NewClient(controlTimeout time.Duration) *Client {
	return &Client{
		streamClient:  &http.Client{},
		controlClient: &http.Client{Timeout: controlTimeout},
	}
}

// OverrideHTTPClientsForTest replaces both underlying HTTP clients.
// For testing only.
func (c *Client) OverrideHTTPClientsForTest(httpClient *http.Client) {
	c.streamClient = httpClient
	c.controlClient = httpClient
}

func (t Target) endpoint(path string) string {
	return strings.TrimRight(t.BaseURL, "/") + path
}

func (t Target) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}
}

// chatRequest is the upstream request body for both the streaming and the
// fire-and-poll chat calls.
type chatRequest struct {
	Message   string `json:"message"`
	AgentID   string `json:"agent_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// OpenStream starts one streaming exchange and returns the raw upstream body.
// The caller owns the ReadCloser and must close it; cancelling ctx aborts the
// in-flight read, which is how downstream disconnects release the upstream
// connection.
func (c *Client) OpenStream(ctx context.Context, target Target, requestID, message string) (io.ReadCloser, error) {
	if target.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	body, err := json.Marshal(chatRequest{Message: message, AgentID: target.AgentID, RequestID: requestID})
	if err != nil {
		return nil, fmt.Errorf("marshal stream request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.endpoint("/chat/stream"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	target.setHeaders(req)
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open agent stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	return resp.Body, nil
}

// SendResult is the upstream's acknowledgement of a fire-and-poll send.
type SendResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// SendMessage fires a message without streaming. Callers poll for the result
// separately.
func (c *Client) SendMessage(ctx context.Context, target Target, requestID, message string) (*SendResult, error) {
	if target.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	body, err := json.Marshal(chatRequest{Message: message, AgentID: target.AgentID, RequestID: requestID})
	if err != nil {
		return nil, fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.endpoint("/chat"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create send request: %w", err)
	}
	target.setHeaders(req)

	resp, err := c.controlClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	var result SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	if result.RequestID == "" {
		result.RequestID = requestID
	}
	return &result, nil
}

// AgentStatus is the upstream's health/metadata report.
type AgentStatus struct {
	Connected bool   `json:"connected"`
	AgentID   string `json:"agent_id,omitempty"`
	Model     string `json:"model,omitempty"`
	Version   string `json:"version,omitempty"`
}

// Status checks upstream connectivity and returns agent metadata.
func (c *Client) Status(ctx context.Context, target Target) (*AgentStatus, error) {
	if target.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.endpoint("/status"), nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	target.setHeaders(req)

	resp, err := c.controlClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	status := &AgentStatus{Connected: true}
	if err := json.NewDecoder(resp.Body).Decode(status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	status.Connected = true
	return status, nil
}

// Stop signals the upstream agent to abandon a request. Best effort: a
// non-2xx answer is an error, but callers typically log and move on.
func (c *Client) Stop(ctx context.Context, target Target, requestID string) error {
	if target.BaseURL == "" {
		return ErrNoBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.endpoint("/chat/"+requestID+"/stop"), nil)
	if err != nil {
		return fmt.Errorf("create stop request: %w", err)
	}
	target.setHeaders(req)

	resp, err := c.controlClient.Do(req)
	if err != nil {
		return fmt.Errorf("stop request %s: %w", requestID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}
