package perception

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"kisandoctor/internal/logging"
)

// contentGenerator is the slice of *genai.Models the client needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
}

// DefaultGeminiConfig returns sensible defaults.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:      apiKey,
		Model:       "gemini-3-flash-preview",
		Timeout:     60 * time.Second,
		Temperature: 0.2,
	}
}

// GeminiClient implements ModelClient on top of the Google GenAI SDK.
type GeminiClient struct {
	models      contentGenerator
	model       string
	timeout     time.Duration
	temperature float32
}

// NewGeminiClient creates a Gemini client with the given config.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiClient(client.Models, cfg), nil
}

func newGeminiClient(models contentGenerator, cfg GeminiConfig) *GeminiClient {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	return &GeminiClient{
		models:      models,
		model:       model,
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
	}
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.model
}

// GenerateJSON sends the request and returns the JSON text of the first candidate.
func (c *GeminiClient) GenerateJSON(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromParts(c.buildParts(req), genai.RoleUser)}
	resp, err := c.models.GenerateContent(ctx, c.model, contents, c.buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini generate (%s): %w", req.Mode, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	result := &GenerateResult{Text: text, Model: c.model}
	if resp.UsageMetadata != nil {
		result.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	logging.APIDebug("gemini %s: %d prompt tokens, %d output tokens", req.Mode, result.PromptTokens, result.OutputTokens)
	return result, nil
}

func (c *GeminiClient) buildParts(req GenerateRequest) []*genai.Part {
	parts := make([]*genai.Part, 0, len(req.Media)+1)
	for _, m := range req.Media {
		if m == nil || len(m.Data) == 0 {
			continue
		}
		parts = append(parts, genai.NewPartFromBytes(m.Data, m.MIMEType))
	}
	return append(parts, genai.NewPartFromText(req.Prompt))
}

func (c *GeminiClient) buildConfig(req GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if c.temperature > 0 {
		cfg.Temperature = genai.Ptr(c.temperature)
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.GoogleSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}
