package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akash-network/agent-relay/pkg/agent"
	"github.com/akash-network/agent-relay/pkg/session"
)

func TestMapSessionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "session not found",
			err:      fmt.Errorf("request %q: %w", "x", session.ErrNotFound),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "missing base URL",
			err:      agent.ErrNoBaseURL,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "upstream status error",
			err:      &agent.StatusError{Code: http.StatusInternalServerError},
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "unexpected error",
			err:      errors.New("something else"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapSessionError(tt.err)
			assert.Equal(t, tt.wantCode, he.Code)
		})
	}
}
