// Package events provides real-time delivery of classified stream events to
// WebSocket subscribers. Delivery is transient and in-memory: request state
// is ephemeral, so there is no persistence and no catch-up — a subscriber
// sees only what arrives while it is connected.
package events

// Event types broadcast on request channels.
const (
	// EventTypeAction is one agent action, in arrival order.
	EventTypeAction = "agent.action"
	// EventTypeFinalResponse is the agent's concluding reply (last-write-wins
	// on the consumer side; every received final_response is broadcast).
	EventTypeFinalResponse = "agent.final_response"
	// EventTypeError is a terminal stream error, upstream or synthesized.
	EventTypeError = "agent.error"
	// EventTypeRequestStatus is a request lifecycle transition.
	EventTypeRequestStatus = "request.status"
)

// GlobalRequestsChannel carries request lifecycle events for all requests.
// A console overview page subscribes here.
const GlobalRequestsChannel = "requests"

// RequestChannel returns the channel name for one request's events.
// Format: "request:{request_id}"
func RequestChannel(requestID string) string {
	return "request:" + requestID
}

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action  string `json:"action"`            // "subscribe", "unsubscribe", "ping"
	Channel string `json:"channel,omitempty"` // channel name (e.g. "request:abc-123")
}
