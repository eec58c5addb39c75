package api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	echo "github.com/labstack/echo/v5"

	"github.com/akash-network/agent-relay/pkg/session"
)

// listRequestsHandler handles GET /api/v1/requests.
func (s *Server) listRequestsHandler(c *echo.Context) error {
	snapshots := s.sessions.List()
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.Before(snapshots[j].CreatedAt)
	})
	return c.JSON(http.StatusOK, snapshots)
}

// getRequestHandler handles GET /api/v1/requests/:id.
func (s *Server) getRequestHandler(c *echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request ID is required")
	}

	sess, err := s.sessions.Get(requestID)
	if err != nil {
		return mapSessionError(err)
	}
	return c.JSON(http.StatusOK, sess.Clone())
}

// stopRequestHandler handles POST /api/v1/requests/:id/stop. Cancels the
// local stream and best-effort signals the upstream agent to abandon the
// request.
func (s *Server) stopRequestHandler(c *echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request ID is required")
	}

	sess, err := s.sessions.Get(requestID)
	if err != nil {
		return mapSessionError(err)
	}

	cancelled := sess.Cancel()
	if !cancelled {
		sess.SetStatus(session.StatusCancelled)
	}

	target := s.resolveTarget(nil)
	if target.BaseURL != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), s.cfg.ControlTimeout)
		defer cancel()
		if err := s.agentClient.Stop(ctx, target, requestID); err != nil {
			slog.Warn("Failed to stop request upstream", "request_id", requestID, "error", err)
		}
	}

	s.setStatus(sess, session.StatusCancelled)
	slog.Info("Request stopped", "request_id", requestID, "had_active_stream", cancelled)

	return c.JSON(http.StatusOK, StopResponse{
		RequestID: requestID,
		Message:   "request stopped",
	})
}

// deleteRequestHandler handles DELETE /api/v1/requests/:id. Deleting a
// session does not stop an in-flight stream; callers stop first.
func (s *Server) deleteRequestHandler(c *echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request ID is required")
	}

	if err := s.sessions.Delete(requestID); err != nil {
		return mapSessionError(err)
	}
	slog.Info("Request deleted", "request_id", requestID)
	return c.NoContent(http.StatusNoContent)
}
