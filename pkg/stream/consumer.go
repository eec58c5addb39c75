package stream

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/akash-network/agent-relay/pkg/models"
)

// readBufferSize is the transport read granularity. Framing is boundary
// independent, so the value only affects syscall frequency.
const readBufferSize = 4096

// ProtocolError is a well-formed error event received from the upstream
// agent. It terminates the stream and is propagated verbatim, unlike
// malformed records which are skipped.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "upstream agent error: " + e.Message
}

// Outcome is the result of consuming one stream to termination.
type Outcome struct {
	// FinalResponse is the last final_response payload observed.
	FinalResponse string
	// HasFinalResponse is false when the agent completed silently.
	HasFinalResponse bool
	// ActionCount is the number of action events delivered.
	ActionCount int
}

// Consume drains r to end-of-stream, framing and classifying each line and
// delivering action events to onAction in arrival order. It is synchronous
// and pull-based: the only suspension point is the transport read, and r is
// expected to be bound to ctx by the caller (an HTTP response body is).
//
// Exactly one termination is reported per call:
//   - clean end-of-stream → (outcome, nil)
//   - upstream error event → (partial outcome, *ProtocolError)
//   - transport failure → (partial outcome, the read error)
func Consume(ctx context.Context, r io.Reader, onAction ActionFunc) (*Outcome, error) {
	framer := NewLineFramer()
	sequencer := NewActionSequencer(onAction)
	accumulator := NewResponseAccumulator()

	outcome := func() *Outcome {
		response, ok := accumulator.FinalResponse()
		return &Outcome{
			FinalResponse:    response,
			HasFinalResponse: ok,
			ActionCount:      sequencer.Count(),
		}
	}

	handle := func(line string) *ProtocolError {
		event, err := Classify(line)
		if err != nil {
			// Malformed record — skipped, never surfaced.
			slog.Debug("Skipping unclassifiable stream record", "error", err)
			return nil
		}

		switch event.Type {
		case models.EventTypeAction:
			sequencer.Deliver(event.Action)
		case models.EventTypeFinalResponse:
			accumulator.Observe(event.Response)
		case models.EventTypeError:
			return &ProtocolError{Message: event.Message}
		}
		return nil
	}

	buf := make([]byte, readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			accumulator.Terminate()
			return outcome(), err
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			for _, line := range framer.Push(string(buf[:n])) {
				if perr := handle(line); perr != nil {
					accumulator.Terminate()
					return outcome(), perr
				}
			}
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				accumulator.Terminate()
				return outcome(), readErr
			}
			break
		}
	}

	// Flush policy: treat a non-empty residual as a final complete line; if
	// it fails to classify it is dropped silently like any malformed record.
	if line, ok := framer.Flush(); ok {
		if perr := handle(line); perr != nil {
			accumulator.Terminate()
			return outcome(), perr
		}
	}

	accumulator.Terminate()
	return outcome(), nil
}
