package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestDisplayStatus(t *testing.T) {
	tests := []struct {
		name   string
		status ActionStatus
		want   ActionStatus
	}{
		{name: "explicit pending", status: ActionStatusPending, want: ActionStatusPending},
		{name: "explicit error", status: ActionStatusError, want: ActionStatusError},
		{name: "omitted defaults to completed", status: "", want: ActionStatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &AgentAction{Command: CommandChat, Status: tt.status}
			assert.Equal(t, tt.want, a.DisplayStatus())
		})
	}
}

func TestSameIdentity(t *testing.T) {
	tests := []struct {
		name string
		a, b *AgentAction
		want bool
	}{
		{
			name: "same command and index",
			a:    &AgentAction{Command: CommandRunSubprocess, SequenceIndex: intPtr(3)},
			b:    &AgentAction{Command: CommandRunSubprocess, SequenceIndex: intPtr(3)},
			want: true,
		},
		{
			name: "different command",
			a:    &AgentAction{Command: CommandRunSubprocess, SequenceIndex: intPtr(3)},
			b:    &AgentAction{Command: CommandReadFile, SequenceIndex: intPtr(3)},
			want: false,
		},
		{
			name: "different index",
			a:    &AgentAction{Command: CommandChat, SequenceIndex: intPtr(1)},
			b:    &AgentAction{Command: CommandChat, SequenceIndex: intPtr(2)},
			want: false,
		},
		{
			name: "missing index never matches",
			a:    &AgentAction{Command: CommandChat},
			b:    &AgentAction{Command: CommandChat},
			want: false,
		},
		{
			name: "one-sided index never matches",
			a:    &AgentAction{Command: CommandChat, SequenceIndex: intPtr(0)},
			b:    &AgentAction{Command: CommandChat},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SameIdentity(tt.b))
		})
	}
}
