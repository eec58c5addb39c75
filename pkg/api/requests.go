package api

// AgentConfig is the per-request upstream override. Any field left empty
// falls back to the service configuration; base_url must be present in one
// of the two.
type AgentConfig struct {
	AgentID string `json:"agent_id,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// ChatRequest is the HTTP request body for POST /api/v1/chat/stream and
// POST /api/v1/chat.
type ChatRequest struct {
	Message     string       `json:"message"`
	RequestID   string       `json:"request_id,omitempty"`
	Timeout     int          `json:"timeout,omitempty"` // seconds; 0 → configured ceiling
	AgentConfig *AgentConfig `json:"agent_config,omitempty"`
}
