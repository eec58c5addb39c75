package events

import (
	"github.com/akash-network/agent-relay/pkg/models"
	"github.com/akash-network/agent-relay/pkg/session"
)

// ActionPayload is the payload for agent.action events.
type ActionPayload struct {
	Type         string             `json:"type"`          // always EventTypeAction
	RequestID    string             `json:"request_id"`    // owning request
	ArrivalCount int                `json:"arrival_count"` // 1-based arrival order, gap-free
	Action       models.AgentAction `json:"action"`        // upstream action, sequence_index untouched
	Timestamp    string             `json:"timestamp"`     // RFC3339Nano
}

// FinalResponsePayload is the payload for agent.final_response events.
type FinalResponsePayload struct {
	Type      string `json:"type"`       // always EventTypeFinalResponse
	RequestID string `json:"request_id"` // owning request
	Response  string `json:"response"`   // concluding reply text (may be empty)
	Timestamp string `json:"timestamp"`  // RFC3339Nano
}

// ErrorPayload is the payload for agent.error events.
type ErrorPayload struct {
	Type      string `json:"type"`       // always EventTypeError
	RequestID string `json:"request_id"` // owning request
	Message   string `json:"message"`    // human-readable failure description
	Timestamp string `json:"timestamp"`  // RFC3339Nano
}

// RequestStatusPayload is the payload for request.status events.
type RequestStatusPayload struct {
	Type      string         `json:"type"`       // always EventTypeRequestStatus
	RequestID string         `json:"request_id"` // request UUID
	Status    session.Status `json:"status"`     // pending, streaming, completed, failed, cancelled, timed_out
	Timestamp string         `json:"timestamp"`  // RFC3339Nano
}
