package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"kisandoctor/internal/types"
)

// Consultant implements types.DiagnosisService over a ModelClient.
type Consultant struct {
	client       ModelClient
	historyTurns int
}

var _ types.DiagnosisService = (*Consultant)(nil)

// NewConsultant creates a consultant. historyTurns bounds how many prior
// messages are quoted back to the model; zero disables conversation context.
func NewConsultant(client ModelClient, historyTurns int) *Consultant {
	if historyTurns < 0 {
		historyTurns = 0
	}
	return &Consultant{client: client, historyTurns: historyTurns}
}

// Consult sends one turn to the model and decodes the structured reply.
// The reply is returned as the model produced it; provenance and repair are
// the caller's job.
func (c *Consultant) Consult(ctx context.Context, req types.ConsultRequest) (*types.BotResponse, error) {
	if req.Mode == "" {
		req.Mode = types.ModeConversation
		if req.Image != nil {
			req.Mode = types.ModeDiagnosis
		}
	}
	req.History = tail(req.History, c.historyTurns)

	result, err := c.client.GenerateJSON(ctx, GenerateRequest{
		Mode:              string(req.Mode),
		SystemInstruction: SystemInstruction,
		Prompt:            BuildPrompt(req),
		Media:             []*types.Media{req.Image, req.Audio},
		Schema:            ResponseSchema(),
	})
	if err != nil {
		return nil, err
	}
	return DecodeResponse(result.Text)
}

// DecodeResponse parses a model JSON reply into a BotResponse.
func DecodeResponse(text string) (*types.BotResponse, error) {
	text = StripCodeFence(text)
	if text == "" {
		return nil, ErrEmptyResponse
	}
	var resp types.BotResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	if !resp.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResponseType, resp.Type)
	}
	return &resp, nil
}

// StripCodeFence removes a ```json fence some models wrap around JSON output.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func tail(history []types.ChatMessage, n int) []types.ChatMessage {
	if n <= 0 {
		return nil
	}
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
