package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/akash-network/agent-relay/pkg/dedup"
	"github.com/akash-network/agent-relay/pkg/session"
)

// chatSendHandler handles POST /api/v1/chat: fire-and-poll submission. The
// message is handed to the agent service without holding a stream open; the
// caller polls GET /api/v1/requests/:id or subscribes over WebSocket for
// progress.
func (s *Server) chatSendHandler(c *echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	target := s.resolveTarget(req.AgentConfig)
	if target.BaseURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "agent base_url is required")
	}

	if !s.guard.ShouldAccept(dedup.Fingerprint(message)) {
		return echo.NewHTTPError(http.StatusConflict, "duplicate message rejected")
	}

	sess, err := s.sessions.Create(req.RequestID, message)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.ControlTimeout)
	defer cancel()

	result, err := s.agentClient.SendMessage(ctx, target, sess.ID, message)
	if err != nil {
		// The submission never reached the agent; drop the orphan session so
		// the caller can retry with the same request ID.
		if delErr := s.sessions.Delete(sess.ID); delErr != nil {
			slog.Warn("Failed to delete orphan session", "request_id", sess.ID, "error", delErr)
		}
		return mapSessionError(err)
	}

	s.setStatus(sess, session.StatusPending)
	slog.Info("Message submitted to agent", "request_id", result.RequestID)

	status := result.Status
	if status == "" {
		status = string(session.StatusPending)
	}
	return c.JSON(http.StatusAccepted, SendMessageResponse{
		RequestID: result.RequestID,
		Status:    status,
	})
}
