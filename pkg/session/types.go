// Package session tracks ephemeral per-request state for one streaming
// exchange with the upstream agent. Nothing is persisted — a RequestSession
// lives in memory for the duration of one request and is discarded when the
// caller is done with it.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/akash-network/agent-relay/pkg/models"
)

// Status represents the current state of a request session.
type Status string

const (
	StatusPending   Status = "pending"
	StatusStreaming Status = "streaming"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusTimedOut  Status = "timed_out"
)

// ActionEntry is one row of a session's action log: the delivered action plus
// the arrival count the sequencer assigned to it.
type ActionEntry struct {
	ArrivalCount int                `json:"arrival_count"`
	Action       models.AgentAction `json:"action"`
}

// RequestSession is the state of one outbound chat message. It is owned by
// the stream that created it; the mutex exists so snapshot reads (session
// list, WebSocket subscribers) can observe it safely while the stream runs.
type RequestSession struct {
	ID            string
	Message       string
	Status        Status
	Actions       []ActionEntry
	FinalResponse string
	HasFinal      bool
	Error         string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	mu         sync.RWMutex
	cancelFunc context.CancelFunc
}

// Snapshot is a consistent read-only copy of a RequestSession.
type Snapshot struct {
	ID            string        `json:"request_id"`
	Message       string        `json:"message"`
	Status        Status        `json:"status"`
	Actions       []ActionEntry `json:"actions"`
	FinalResponse string        `json:"final_response,omitempty"`
	HasFinal      bool          `json:"has_final_response"`
	Error         string        `json:"error,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// AppendAction records a delivered action. The log is append-only with one
// exception: a later action sharing identity (command + sequence_index) with
// an existing entry updates that entry's status and result in place, so a
// pending action that later completes occupies a single log row.
func (s *RequestSession) AppendAction(arrivalCount int, action *models.AgentAction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Actions {
		if s.Actions[i].Action.SameIdentity(action) {
			s.Actions[i].Action.Status = action.Status
			s.Actions[i].Action.Result = action.Result
			s.UpdatedAt = time.Now()
			return
		}
	}

	s.Actions = append(s.Actions, ActionEntry{ArrivalCount: arrivalCount, Action: *action})
	s.UpdatedAt = time.Now()
}

// SetStatus updates the session status.
func (s *RequestSession) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.UpdatedAt = time.Now()
}

// SetFinalResponse overwrites the accumulated final response. Later values
// win; the upstream may send more than one.
func (s *RequestSession) SetFinalResponse(response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FinalResponse = response
	s.HasFinal = true
	s.UpdatedAt = time.Now()
}

// SetError records a terminal error and marks the session failed.
func (s *RequestSession) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Error = message
	s.Status = StatusFailed
	s.UpdatedAt = time.Now()
}

// SetTimedOut marks the session as timed out.
func (s *RequestSession) SetTimedOut(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Error = message
	s.Status = StatusTimedOut
	s.UpdatedAt = time.Now()
}

// SetCancelFunc stores the function that aborts the in-flight upstream
// exchange.
func (s *RequestSession) SetCancelFunc(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelFunc = cancel
}

// Cancel aborts the in-flight exchange, if any. Returns false when the
// session has no cancellable work.
func (s *RequestSession) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelFunc == nil {
		return false
	}
	s.cancelFunc()
	s.Status = StatusCancelled
	s.UpdatedAt = time.Now()
	return true
}

// Clone returns a consistent snapshot for reading.
func (s *RequestSession) Clone() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	actions := make([]ActionEntry, len(s.Actions))
	copy(actions, s.Actions)

	return Snapshot{
		ID:            s.ID,
		Message:       s.Message,
		Status:        s.Status,
		Actions:       actions,
		FinalResponse: s.FinalResponse,
		HasFinal:      s.HasFinal,
		Error:         s.Error,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}
