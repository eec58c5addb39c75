// Package stream reconstructs the agent's event stream from raw transport
// chunks: newline framing, event classification, arrival-order action
// sequencing, and final-response accumulation.
package stream

import "strings"

// LineFramer splits an incoming sequence of opaque text chunks into complete,
// trimmed, non-empty lines. Chunks may break anywhere — mid-line, mid-rune —
// so the final fragment of every chunk is buffered until its newline arrives.
//
// A framer is single-use: one instance per stream, no restart.
type LineFramer struct {
	pending strings.Builder
}

// NewLineFramer creates a framer for one stream.
func NewLineFramer() *LineFramer {
	return &LineFramer{}
}

// Push appends a chunk and returns all lines completed by it, in order.
// Empty chunks are no-ops. A chunk containing no newline is fully buffered
// and yields nothing. Lines that are blank after trimming are skipped.
func (f *LineFramer) Push(chunk string) []string {
	if chunk == "" {
		return nil
	}

	f.pending.WriteString(chunk)
	buffered := f.pending.String()
	if !strings.Contains(buffered, "\n") {
		return nil
	}

	parts := strings.Split(buffered, "\n")

	// The last part is an incomplete fragment (possibly empty) — re-buffer it.
	f.pending.Reset()
	f.pending.WriteString(parts[len(parts)-1])

	var lines []string
	for _, part := range parts[:len(parts)-1] {
		if line := strings.TrimSpace(part); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Flush returns the buffered residual as a final line once the transport has
// closed. The second return is false when nothing non-blank remains. Callers
// apply the flush policy: attempt to classify the residual, drop it silently
// if it fails.
func (f *LineFramer) Flush() (string, bool) {
	line := strings.TrimSpace(f.pending.String())
	f.pending.Reset()
	return line, line != ""
}
