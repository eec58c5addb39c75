package stream

// ResponseAccumulator captures the terminal final_response of a stream.
// The upstream contract does not guarantee exactly one final_response per
// request: zero and multiple have both been observed. Later values overwrite
// earlier ones (last-write-wins), and termination is signalled only by
// end-of-stream — never by mere receipt of a final_response.
type ResponseAccumulator struct {
	response    string
	hasResponse bool
	terminated  bool
}

// NewResponseAccumulator creates an accumulator for one stream.
func NewResponseAccumulator() *ResponseAccumulator {
	return &ResponseAccumulator{}
}

// Observe records a final_response payload, replacing any earlier one.
func (a *ResponseAccumulator) Observe(response string) {
	a.response = response
	a.hasResponse = true
}

// Terminate marks the stream as closed. Idempotent.
func (a *ResponseAccumulator) Terminate() {
	a.terminated = true
}

// FinalResponse returns the accumulated response. ok is false when the agent
// completed without producing one — callers must treat that as "no final
// text", not as an error.
func (a *ResponseAccumulator) FinalResponse() (response string, ok bool) {
	return a.response, a.hasResponse
}

// Terminated reports whether the underlying stream has closed.
func (a *ResponseAccumulator) Terminated() bool {
	return a.terminated
}
