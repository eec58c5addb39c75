package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Publisher broadcasts typed payloads to WebSocket subscribers. All events
// are transient: a request's state is ephemeral and never persisted, so a
// subscriber that connects late reads the current snapshot over REST instead
// of catching up on missed events.
//
// Each public method accepts a specific typed payload struct — see payloads.go.
type Publisher struct {
	manager *ConnectionManager
}

// NewPublisher creates a Publisher delivering through manager.
func NewPublisher(manager *ConnectionManager) *Publisher {
	return &Publisher{manager: manager}
}

// PublishAction broadcasts an agent.action event to the request channel.
func (p *Publisher) PublishAction(requestID string, payload ActionPayload) error {
	return p.broadcast(RequestChannel(requestID), payload)
}

// PublishFinalResponse broadcasts an agent.final_response event to the
// request channel.
func (p *Publisher) PublishFinalResponse(requestID string, payload FinalResponsePayload) error {
	return p.broadcast(RequestChannel(requestID), payload)
}

// PublishError broadcasts an agent.error event to the request channel.
func (p *Publisher) PublishError(requestID string, payload ErrorPayload) error {
	return p.broadcast(RequestChannel(requestID), payload)
}

// PublishRequestStatus broadcasts a request.status event to the request
// channel and to the global requests channel. Both sends are best-effort;
// the first error encountered is returned.
func (p *Publisher) PublishRequestStatus(requestID string, payload RequestStatusPayload) error {
	var firstErr error
	if err := p.broadcast(RequestChannel(requestID), payload); err != nil {
		slog.Warn("Failed to publish request status to request channel",
			"request_id", requestID, "status", payload.Status, "error", err)
		firstErr = err
	}
	if err := p.broadcast(GlobalRequestsChannel, payload); err != nil {
		slog.Warn("Failed to publish request status to global channel",
			"request_id", requestID, "status", payload.Status, "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Publisher) broadcast(channel string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", payload, err)
	}
	p.manager.Broadcast(channel, data)
	return nil
}
