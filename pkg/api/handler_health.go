package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/akash-network/agent-relay/pkg/version"
)

const healthProbeTimeout = 5 * time.Second

// healthHandler handles GET /health. An unreachable agent service degrades
// the report but never fails it: the relay itself is still serving, and
// callers configure the upstream per request anyway.
func (s *Server) healthHandler(c *echo.Context) error {
	resp := HealthResponse{
		Status:  "healthy",
		Version: version.Full(),
		Checks:  make(map[string]HealthCheck),
	}

	resp.Checks["sessions"] = HealthCheck{
		Status:  "healthy",
		Message: fmt.Sprintf("%d active", s.sessions.Len()),
	}
	resp.Checks["websocket"] = HealthCheck{
		Status:  "healthy",
		Message: fmt.Sprintf("%d connections", s.connManager.ActiveConnections()),
	}

	target := s.resolveTarget(nil)
	switch {
	case target.BaseURL == "":
		resp.Checks["agent"] = HealthCheck{
			Status:  "not_configured",
			Message: "no static agent base URL; targets are per-request",
		}
	default:
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
		defer cancel()

		status, err := s.agentClient.Status(ctx, target)
		if err != nil {
			resp.Status = "degraded"
			resp.Checks["agent"] = HealthCheck{Status: "unreachable", Message: err.Error()}
		} else {
			resp.Checks["agent"] = HealthCheck{Status: "healthy"}
			resp.Agent = status
		}
	}

	return c.JSON(http.StatusOK, resp)
}
