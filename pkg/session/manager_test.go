package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akash-network/agent-relay/pkg/models"
)

func intPtr(i int) *int { return &i }

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager()

	s, err := m.Create("", "deploy a web app")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID, "empty request ID should be generated")
	assert.Equal(t, StatusPending, s.Status)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), ErrNotFound)
}

func TestManager_CallerSuppliedID(t *testing.T) {
	m := NewManager()

	s, err := m.Create("req-42", "hello")
	require.NoError(t, err)
	assert.Equal(t, "req-42", s.ID)

	_, err = m.Create("req-42", "hello again")
	assert.Error(t, err, "duplicate request IDs must be rejected")
}

func TestRequestSession_ActionLogAppendOnly(t *testing.T) {
	m := NewManager()
	s, err := m.Create("", "msg")
	require.NoError(t, err)

	s.AppendAction(1, &models.AgentAction{Command: models.CommandChat, SequenceIndex: intPtr(1)})
	s.AppendAction(2, &models.AgentAction{Command: models.CommandReadFile, SequenceIndex: intPtr(2)})

	snap := s.Clone()
	require.Len(t, snap.Actions, 2)
	assert.Equal(t, 1, snap.Actions[0].ArrivalCount)
	assert.Equal(t, 2, snap.Actions[1].ArrivalCount)
}

func TestRequestSession_IdentityUpdatesInPlace(t *testing.T) {
	m := NewManager()
	s, err := m.Create("", "msg")
	require.NoError(t, err)

	s.AppendAction(1, &models.AgentAction{
		Command:       models.CommandRunSubprocess,
		SequenceIndex: intPtr(5),
		Status:        models.ActionStatusPending,
	})
	// Same identity (command + sequence_index) → status/result update, not a
	// new row.
	s.AppendAction(2, &models.AgentAction{
		Command:       models.CommandRunSubprocess,
		SequenceIndex: intPtr(5),
		Status:        models.ActionStatusCompleted,
		Result:        "exit 0",
	})

	snap := s.Clone()
	require.Len(t, snap.Actions, 1)
	assert.Equal(t, models.ActionStatusCompleted, snap.Actions[0].Action.Status)
	assert.Equal(t, "exit 0", snap.Actions[0].Action.Result)
	assert.Equal(t, 1, snap.Actions[0].ArrivalCount, "original arrival count is kept")
}

func TestRequestSession_NoIdentityWithoutSequenceIndex(t *testing.T) {
	m := NewManager()
	s, err := m.Create("", "msg")
	require.NoError(t, err)

	// Same command, but no sequence_index — identity never matches, so both
	// deliveries are distinct log entries.
	s.AppendAction(1, &models.AgentAction{Command: models.CommandChat})
	s.AppendAction(2, &models.AgentAction{Command: models.CommandChat})

	assert.Len(t, s.Clone().Actions, 2)
}

func TestRequestSession_Cancel(t *testing.T) {
	m := NewManager()
	s, err := m.Create("", "msg")
	require.NoError(t, err)

	assert.False(t, s.Cancel(), "nothing in flight yet")

	ctx, cancel := context.WithCancel(context.Background())
	s.SetCancelFunc(cancel)

	assert.True(t, s.Cancel())
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Equal(t, StatusCancelled, s.Clone().Status)
}

func TestRequestSession_FinalResponseLastWriteWins(t *testing.T) {
	m := NewManager()
	s, err := m.Create("", "msg")
	require.NoError(t, err)

	s.SetFinalResponse("first")
	s.SetFinalResponse("second")

	snap := s.Clone()
	assert.True(t, snap.HasFinal)
	assert.Equal(t, "second", snap.FinalResponse)
}
