package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/akash-network/agent-relay/pkg/dedup"
	"github.com/akash-network/agent-relay/pkg/events"
	"github.com/akash-network/agent-relay/pkg/models"
	"github.com/akash-network/agent-relay/pkg/session"
	"github.com/akash-network/agent-relay/pkg/stream"
)

// chatStreamHandler handles POST /api/v1/chat/stream.
//
// The relay is a dumb pipe: upstream chunks are forwarded downstream
// byte-for-byte, never re-framed. Classification runs on a tee of the same
// bytes to reconstruct the session's action log and feed WebSocket
// subscribers — it observes the stream, it does not shape it.
//
// Failure contract: once the stream is open, the downstream caller always
// receives a terminal signal. Upstream connect failure, non-2xx, network
// interruption, and timeout all synthesize exactly one error-kind record; a
// well-formed upstream error event is forwarded verbatim by the pipe and
// never duplicated.
func (s *Server) chatStreamHandler(c *echo.Context) error {
	// 1. Bind and validate — configuration errors are plain HTTP errors,
	// no stream is opened.
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

	// 2. Duplicate guard — injectable policy, disabled when NopGuard.
	if !s.guard.ShouldAccept(dedup.Fingerprint(message)) {
		return echo.NewHTTPError(http.StatusConflict, "duplicate message rejected")
	}

	// 3. Create the session owning this exchange.
	sess, err := s.sessions.Create(req.RequestID, message)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}

	// 4. One ceiling bounds the whole exchange. The request context already
	// cancels on downstream disconnect, which releases the upstream
	// connection promptly.
	ceiling := s.cfg.StreamTimeout
	if req.Timeout > 0 {
		ceiling = time.Duration(req.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), ceiling)
	defer cancel()
	sess.SetCancelFunc(cancel)

	s.setStatus(sess, session.StatusStreaming)

	// 5. Streaming response headers go out before the upstream call: from
	// here on, failures are terminal error records, not HTTP statuses.
	w := c.Response()
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no") // nginx
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)
	_ = rc.Flush()

	upstream, err := s.agentClient.OpenStream(ctx, target, sess.ID, message)
	if err != nil {
		s.failStream(c, sess, fmt.Sprintf("failed to reach agent service: %v", err))
		return nil
	}
	defer upstream.Close()

	// 6. Forward verbatim while classifying the same bytes.
	onAction := func(arrivalCount int, action *models.AgentAction) {
		sess.AppendAction(arrivalCount, action)
		if err := s.publisher.PublishAction(sess.ID, events.ActionPayload{
			Type:         events.EventTypeAction,
			RequestID:    sess.ID,
			ArrivalCount: arrivalCount,
			Action:       *action,
			Timestamp:    time.Now().Format(time.RFC3339Nano),
		}); err != nil {
			slog.Warn("Failed to publish action event", "request_id", sess.ID, "error", err)
		}
	}

	tee := io.TeeReader(upstream, &flushWriter{w: w, rc: rc})
	outcome, err := stream.Consume(ctx, tee, onAction)

	switch {
	case err == nil:
		if outcome.HasFinalResponse {
			sess.SetFinalResponse(outcome.FinalResponse)
			if perr := s.publisher.PublishFinalResponse(sess.ID, events.FinalResponsePayload{
				Type:      events.EventTypeFinalResponse,
				RequestID: sess.ID,
				Response:  outcome.FinalResponse,
				Timestamp: time.Now().Format(time.RFC3339Nano),
			}); perr != nil {
				slog.Warn("Failed to publish final response event", "request_id", sess.ID, "error", perr)
			}
		}
		s.setStatus(sess, session.StatusCompleted)
		slog.Info("Agent stream completed",
			"request_id", sess.ID,
			"actions", outcome.ActionCount,
			"has_final_response", outcome.HasFinalResponse)

	case isProtocolError(err):
		// The error record was part of the upstream byte stream — the pipe
		// already delivered it. Record and broadcast, but do not synthesize
		// a second terminal record.
		var perr *stream.ProtocolError
		errors.As(err, &perr)
		sess.SetError(perr.Message)
		s.publishError(sess.ID, perr.Message)
		s.setStatus(sess, session.StatusFailed)
		slog.Info("Agent stream ended with upstream error",
			"request_id", sess.ID, "message", perr.Message)

	case errors.Is(err, context.DeadlineExceeded):
		msg := fmt.Sprintf("agent request timed out after %s", ceiling)
		sess.SetTimedOut(msg)
		s.writeErrorRecord(w, rc, msg)
		s.publishError(sess.ID, msg)
		s.setStatus(sess, session.StatusTimedOut)
		slog.Warn("Agent stream timed out", "request_id", sess.ID, "ceiling", ceiling)

	case errors.Is(err, context.Canceled):
		// Downstream went away or the request was stopped. Nobody is left
		// to receive a terminal record; just account for it.
		s.setStatus(sess, session.StatusCancelled)
		slog.Info("Agent stream cancelled", "request_id", sess.ID)

	default:
		msg := fmt.Sprintf("agent stream failed: %v", err)
		sess.SetError(msg)
		s.writeErrorRecord(w, rc, msg)
		s.publishError(sess.ID, msg)
		s.setStatus(sess, session.StatusFailed)
		slog.Warn("Agent stream failed", "request_id", sess.ID, "error", err)
	}

	return nil
}

// failStream delivers the single terminal error record for a stream that
// never produced upstream bytes.
func (s *Server) failStream(c *echo.Context, sess *session.RequestSession, msg string) {
	sess.SetError(msg)
	s.writeErrorRecord(c.Response(), http.NewResponseController(c.Response()), msg)
	s.publishError(sess.ID, msg)
	s.setStatus(sess, session.StatusFailed)
	slog.Warn("Agent stream failed before upstream bytes", "request_id", sess.ID, "error", msg)
}

// writeErrorRecord synthesizes one error-kind NDJSON record downstream. Write
// failures are ignored: if the downstream is gone there is nobody to signal.
func (s *Server) writeErrorRecord(w io.Writer, rc *http.ResponseController, msg string) {
	record, err := json.Marshal(models.StreamEvent{Type: models.EventTypeError, Message: msg})
	if err != nil {
		slog.Error("Failed to marshal terminal error record", "error", err)
		return
	}
	record = append(record, '\n')
	if _, err := w.Write(record); err != nil {
		return
	}
	_ = rc.Flush()
}

func (s *Server) publishError(requestID, msg string) {
	if err := s.publisher.PublishError(requestID, events.ErrorPayload{
		Type:      events.EventTypeError,
		RequestID: requestID,
		Message:   msg,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}); err != nil {
		slog.Warn("Failed to publish error event", "request_id", requestID, "error", err)
	}
}

func (s *Server) setStatus(sess *session.RequestSession, status session.Status) {
	if sess.Clone().Status != status {
		sess.SetStatus(status)
	}
	if err := s.publisher.PublishRequestStatus(sess.ID, events.RequestStatusPayload{
		Type:      events.EventTypeRequestStatus,
		RequestID: sess.ID,
		Status:    status,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}); err != nil {
		slog.Warn("Failed to publish request status", "request_id", sess.ID, "error", err)
	}
}

func isProtocolError(err error) bool {
	var perr *stream.ProtocolError
	return errors.As(err, &perr)
}

// flushWriter flushes after every write so each upstream chunk reaches the
// downstream client immediately.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil {
		return n, err
	}
	_ = fw.rc.Flush()
	return n, nil
}
