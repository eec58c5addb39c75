package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/akash-network/agent-relay/pkg/agent"
	"github.com/akash-network/agent-relay/pkg/session"
)

// mapSessionError maps session/agent errors to HTTP error responses for the
// non-streaming endpoints. (Streaming failures are terminal error records
// instead — see handler_stream.go.)
func mapSessionError(err error) *echo.HTTPError {
	if errors.Is(err, session.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "request not found")
	}
	if errors.Is(err, agent.ErrNoBaseURL) {
		return echo.NewHTTPError(http.StatusBadRequest, "agent base_url is required")
	}

	var serr *agent.StatusError
	if errors.As(err, &serr) {
		return echo.NewHTTPError(http.StatusBadGateway, serr.Error())
	}

	// Unexpected error
	slog.Error("Unexpected error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}
