// Package models contains the wire-format types exchanged with the upstream
// agent service and the domain types built from them.
package models

// EventType discriminates the variants of a StreamEvent.
type EventType string

const (
	// EventTypeAction carries one discrete operation the agent performed.
	EventTypeAction EventType = "action"
	// EventTypeFinalResponse carries the agent's concluding reply text.
	EventTypeFinalResponse EventType = "final_response"
	// EventTypeError carries a human-readable upstream failure message.
	EventTypeError EventType = "error"
)

// StreamEvent is one record of the agent's line-delimited JSON stream.
// Exactly one variant field is populated, keyed by Type:
//   - action         → Action
//   - final_response → Response
//   - error          → Message
type StreamEvent struct {
	Type     EventType    `json:"type"`
	Action   *AgentAction `json:"action,omitempty"`
	Response string       `json:"response,omitempty"`
	Message  string       `json:"message,omitempty"`
}

// ActionStatus is the display status of an agent action.
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusError     ActionStatus = "error"
)

// Well-known action commands emitted by the upstream agent. The set is
// open-ended — unknown commands are passed through untouched.
const (
	CommandChat          = "chat"
	CommandReadFile      = "read-file"
	CommandModifyFile    = "modify-file"
	CommandCreateFile    = "create-file"
	CommandRunSubprocess = "run-subprocess"
	CommandComplete      = "complete"
)

// AgentAction is one operation reported by the upstream agent while it
// processes a request.
//
// SequenceIndex comes from the upstream and has been observed non-monotonic
// and duplicated in practice. It is display metadata only — never a sort
// key. Ordering is defined by line arrival order.
type AgentAction struct {
	Command       string         `json:"command"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	Result        any            `json:"result,omitempty"`
	Timestamp     float64        `json:"timestamp,omitempty"`
	SequenceIndex *int           `json:"sequence_index,omitempty"`
	Status        ActionStatus   `json:"status,omitempty"`
}

// DisplayStatus returns the action status, defaulting to completed when the
// upstream omitted it.
func (a *AgentAction) DisplayStatus() ActionStatus {
	if a.Status == "" {
		return ActionStatusCompleted
	}
	return a.Status
}

// SameIdentity reports whether two actions refer to the same logical unit:
// matching command plus matching, present sequence_index. Actions without a
// sequence_index never share identity.
func (a *AgentAction) SameIdentity(other *AgentAction) bool {
	if a.SequenceIndex == nil || other.SequenceIndex == nil {
		return false
	}
	return a.Command == other.Command && *a.SequenceIndex == *other.SequenceIndex
}
