package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akash-network/agent-relay/pkg/models"
)

// ErrMalformedRecord marks a line that could not be classified: invalid JSON,
// missing or unrecognized discriminator, or a variant payload that does not
// match its discriminator. Malformed records are not stream errors — callers
// log and skip them.
var ErrMalformedRecord = errors.New("malformed stream record")

// Classify parses one framed line into a StreamEvent.
//
// Classification failure never aborts a stream: it returns an error wrapping
// ErrMalformedRecord and the caller discards the line. A well-formed event of
// kind error is NOT a classification failure — it is returned like any other
// event and the caller escalates it. That asymmetry is deliberate: malformed
// lines are wire noise, upstream error events are signal.
func Classify(line string) (*models.StreamEvent, error) {
	var event models.StreamEvent
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	switch event.Type {
	case models.EventTypeAction:
		if event.Action == nil {
			return nil, fmt.Errorf("%w: action event without action payload", ErrMalformedRecord)
		}
	case models.EventTypeFinalResponse, models.EventTypeError:
		// Payload is a plain string; empty is permitted.
	default:
		return nil, fmt.Errorf("%w: unrecognized type %q", ErrMalformedRecord, event.Type)
	}

	return &event, nil
}
