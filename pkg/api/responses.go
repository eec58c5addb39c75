package api

import (
	"github.com/akash-network/agent-relay/pkg/agent"
)

// SendMessageResponse is returned by POST /api/v1/chat.
type SendMessageResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// StopResponse is returned by POST /api/v1/requests/:id/stop.
type StopResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
}

// HealthCheck is one named component check inside HealthResponse.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
	Agent   *agent.AgentStatus     `json:"agent,omitempty"`
}
