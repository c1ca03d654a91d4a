// Package perception turns farmer input into something the core can act on:
// local intent classification for trivial turns, and structured calls to the
// external vision-language model for everything else.
package perception

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"kisandoctor/internal/types"
)

var (
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrUnknownResponseType is returned when the decoded type tag is not recognised.
	ErrUnknownResponseType = errors.New("model returned an unknown response type")
	// ErrNoAPIKey is returned when a client is built without credentials.
	ErrNoAPIKey = errors.New("API key not configured")
)

// ModelClient is a structured-output generative model.
type ModelClient interface {
	GenerateJSON(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// GenerateRequest is one structured generation call.
type GenerateRequest struct {
	// Mode labels the call for tracing ("DIAGNOSIS", "CONVERSATION", "WEATHER").
	Mode              string
	SystemInstruction string
	Prompt            string
	// Media parts are sent inline ahead of the prompt.
	Media  []*types.Media
	Schema *genai.Schema
	// GoogleSearch enables search grounding for the call.
	GoogleSearch bool
}

// GenerateResult is the raw JSON text produced by the model plus usage data.
type GenerateResult struct {
	Text         string
	Model        string
	PromptTokens int
	OutputTokens int
}

// TotalTokens returns prompt plus output tokens.
func (r *GenerateResult) TotalTokens() int {
	if r == nil {
		return 0
	}
	return r.PromptTokens + r.OutputTokens
}
