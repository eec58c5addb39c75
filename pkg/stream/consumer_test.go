package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akash-network/agent-relay/pkg/models"
)

// chunkReader yields the payload in caller-controlled chunks, one per Read.
type chunkReader struct {
	chunks []string
	pos    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	r.pos++
	return n, nil
}

type delivered struct {
	count  int
	action *models.AgentAction
}

func collect(t *testing.T, r io.Reader) (*Outcome, []delivered, error) {
	t.Helper()
	var actions []delivered
	outcome, err := Consume(context.Background(), r, func(count int, action *models.AgentAction) {
		actions = append(actions, delivered{count: count, action: action})
	})
	return outcome, actions, err
}

func TestConsume_EndToEnd(t *testing.T) {
	payload := `{"type":"action","action":{"command":"chat","parameters":{"message":"Hi"},"timestamp":1,"sequence_index":1}}` + "\n" +
		`{"type":"final_response","response":"Done"}` + "\n"

	outcome, actions, err := collect(t, strings.NewReader(payload))
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, 1, actions[0].count)
	assert.Equal(t, models.CommandChat, actions[0].action.Command)

	assert.True(t, outcome.HasFinalResponse)
	assert.Equal(t, "Done", outcome.FinalResponse)
	assert.Equal(t, 1, outcome.ActionCount)
}

func TestConsume_ChunkBoundaryIndependence(t *testing.T) {
	payload := `{"type":"action","action":{"command":"read-file","sequence_index":3}}` + "\n" +
		`{"type":"action","action":{"command":"modify-file","sequence_index":3}}` + "\n" +
		`{"type":"final_response","response":"first"}` + "\n" +
		`{"type":"final_response","response":"second"}` + "\n"

	var byteByByte []string
	for i := 0; i < len(payload); i++ {
		byteByByte = append(byteByByte, payload[i:i+1])
	}

	rechunkings := map[string][]string{
		"whole payload": {payload},
		"byte by byte":  byteByByte,
		"uneven splits": {payload[:13], payload[13:14], payload[14:90], payload[90:]},
	}

	type observation struct {
		counts   []int
		commands []string
		outcome  Outcome
	}

	var want *observation
	for name, chunks := range rechunkings {
		t.Run(name, func(t *testing.T) {
			outcome, actions, err := collect(t, &chunkReader{chunks: chunks})
			require.NoError(t, err)

			got := &observation{outcome: *outcome}
			for _, d := range actions {
				got.counts = append(got.counts, d.count)
				got.commands = append(got.commands, d.action.Command)
			}

			if want == nil {
				want = got
				assert.Equal(t, []int{1, 2}, got.counts)
				assert.Equal(t, "second", got.outcome.FinalResponse)
			} else {
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestConsume_MalformedLinesAreSkipped(t *testing.T) {
	payload := "not json at all\n" +
		`{"kind":"wrong-discriminator"}` + "\n" +
		`{"type":"action","action":{"command":"chat"}}` + "\n" +
		`{"type":"mystery"}` + "\n" +
		`{"type":"final_response","response":"ok"}` + "\n"

	outcome, actions, err := collect(t, strings.NewReader(payload))
	require.NoError(t, err)

	// Malformed lines produce zero observable events and do not abort.
	require.Len(t, actions, 1)
	assert.Equal(t, 1, actions[0].count)
	assert.Equal(t, "ok", outcome.FinalResponse)
}

func TestConsume_UpstreamErrorEventTerminates(t *testing.T) {
	payload := `{"type":"action","action":{"command":"chat"}}` + "\n" +
		`{"type":"error","message":"agent exploded"}` + "\n" +
		`{"type":"action","action":{"command":"complete"}}` + "\n"

	outcome, actions, err := collect(t, strings.NewReader(payload))

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "agent exploded", perr.Message)

	// Events before the error were delivered; events after it were not.
	assert.Len(t, actions, 1)
	assert.Equal(t, 1, outcome.ActionCount)
}

func TestConsume_ResidualLineWithoutTrailingNewline(t *testing.T) {
	payload := `{"type":"action","action":{"command":"chat"}}` + "\n" +
		`{"type":"final_response","response":"no trailing newline"}`

	outcome, _, err := collect(t, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "no trailing newline", outcome.FinalResponse)
}

func TestConsume_MalformedResidualDroppedSilently(t *testing.T) {
	payload := `{"type":"final_response","response":"ok"}` + "\n" + `{"type":"fin`

	outcome, _, err := collect(t, strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "ok", outcome.FinalResponse)
}

type failingReader struct {
	payload string
	err     error
	done    bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, r.err
	}
	r.done = true
	return copy(p, r.payload), nil
}

func TestConsume_TransportFailureMidStream(t *testing.T) {
	cause := errors.New("connection reset")
	r := &failingReader{payload: `{"type":"action","action":{"command":"chat"}}` + "\n", err: cause}

	outcome, actions, err := collect(t, r)
	assert.ErrorIs(t, err, cause)

	// Partial progress is preserved for the caller.
	assert.Len(t, actions, 1)
	assert.Equal(t, 1, outcome.ActionCount)
	assert.False(t, outcome.HasFinalResponse)
}

func TestConsume_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := Consume(ctx, strings.NewReader("ignored\n"), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotNil(t, outcome)
}
