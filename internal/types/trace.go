package types

import "time"

// ModelTrace captures one external model call for later inspection.
// Prompts are kept, media payloads are not.
type ModelTrace struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Model        string    `json:"model,omitempty"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	MediaCount   int       `json:"media_count"`
	PromptTokens int       `json:"prompt_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
