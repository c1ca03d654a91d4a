package perception

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"kisandoctor/internal/types"
)

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "  "})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeminiClient_GenerateJSON(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`{"type":"CONVERSATION","text_response":"hello"}`)}
	client := newGeminiClient(gen, DefaultGeminiConfig("k"))

	img := &types.Media{MIMEType: "image/png", Data: []byte{1, 2, 3}}
	res, err := client.GenerateJSON(context.Background(), GenerateRequest{
		Mode:              "DIAGNOSIS",
		SystemInstruction: SystemInstruction,
		Prompt:            "Farmer Input: [Image Probe]",
		Media:             []*types.Media{img, nil},
		Schema:            ResponseSchema(),
	})
	require.NoError(t, err)

	assert.Equal(t, `{"type":"CONVERSATION","text_response":"hello"}`, res.Text)
	assert.Equal(t, "gemini-3-flash-preview", res.Model)
	assert.Equal(t, 120, res.PromptTokens)
	assert.Equal(t, 40, res.OutputTokens)
	assert.Equal(t, 160, res.TotalTokens())

	assert.Equal(t, "gemini-3-flash-preview", gen.model)
	assert.True(t, gen.deadline, "configured timeout should bound the call")
	require.Len(t, gen.contents, 1)
	parts := gen.contents[0].Parts
	require.Len(t, parts, 2, "nil media is skipped")
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/png", parts[0].InlineData.MIMEType)
	assert.Equal(t, "Farmer Input: [Image Probe]", parts[1].Text)

	cfg := gen.config
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, SystemInstruction, cfg.SystemInstruction.Parts[0].Text)
	assert.Empty(t, cfg.Tools)
}

func TestGeminiClient_GoogleSearchTool(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse(`{}`)}
	client := newGeminiClient(gen, GeminiConfig{Model: "gemini-2.5-flash"})

	_, err := client.GenerateJSON(context.Background(), GenerateRequest{Mode: "WEATHER", Prompt: "Weather", GoogleSearch: true})
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", gen.model)
	assert.False(t, gen.deadline, "zero timeout leaves the caller context alone")
	require.Len(t, gen.config.Tools, 1)
	assert.NotNil(t, gen.config.Tools[0].GoogleSearch)
	assert.Nil(t, gen.config.Temperature)
}

func TestGeminiClient_Errors(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		boom := errors.New("unavailable")
		client := newGeminiClient(&fakeGenerator{err: boom}, GeminiConfig{Timeout: time.Second})
		_, err := client.GenerateJSON(context.Background(), GenerateRequest{Mode: "CONVERSATION"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty candidates", func(t *testing.T) {
		client := newGeminiClient(&fakeGenerator{resp: &genai.GenerateContentResponse{}}, GeminiConfig{})
		_, err := client.GenerateJSON(context.Background(), GenerateRequest{})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})
}

func TestResponseSchema(t *testing.T) {
	s := ResponseSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"type", "text_response"}, s.Required)
	assert.Len(t, s.Properties["type"].Enum, len(types.ResponseTypes))

	diag := s.Properties["diagnosis_data"]
	require.NotNil(t, diag.Nullable)
	assert.True(t, *diag.Nullable)
	assert.Contains(t, diag.Required, "prevention_tips")
	assert.Equal(t, []string{"HIGH", "LOW"}, diag.Properties["confidence"].Enum)

	w := WeatherSchema()
	assert.Len(t, w.Required, 8)
	assert.Equal(t, genai.TypeArray, w.Properties["forecast"].Type)
}
