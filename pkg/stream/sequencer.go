package stream

import "github.com/akash-network/agent-relay/pkg/models"

// ActionFunc receives one action in arrival order. arrivalCount is 1-based,
// strictly increasing with no gaps, and independent of the upstream
// sequence_index (which is passed through inside the action as metadata).
type ActionFunc func(arrivalCount int, action *models.AgentAction)

// ActionSequencer numbers action events by arrival and hands them to a
// registered callback. It never reorders and never deduplicates — collapsing
// same-identity actions into one log entry is the consumer's policy (see
// session.RequestSession.AppendAction).
type ActionSequencer struct {
	count    int
	onAction ActionFunc
}

// NewActionSequencer creates a sequencer delivering to onAction (may be nil,
// in which case delivery only counts).
func NewActionSequencer(onAction ActionFunc) *ActionSequencer {
	return &ActionSequencer{onAction: onAction}
}

// Deliver assigns the next arrival count to action and invokes the callback.
// Returns the assigned count.
func (s *ActionSequencer) Deliver(action *models.AgentAction) int {
	s.count++
	if s.onAction != nil {
		s.onAction(s.count, action)
	}
	return s.count
}

// Count returns the number of actions delivered so far.
func (s *ActionSequencer) Count() int {
	return s.count
}
