package perception

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kisandoctor/internal/types"
)

const diagnosisJSON = `{
  "type": "DIAGNOSIS",
  "text_response": "Your tomato has late blight.",
  "diagnosis_data": {
    "disease_name": "Tomato___Late_blight",
    "confidence": "HIGH",
    "crop_detected": "Tomato",
    "explanation": "Water mould.",
    "treatment_steps": ["Apply Mancozeb."],
    "prevention_tips": ["Drip irrigation.", "Wider spacing."]
  }
}`

func TestConsultant_Diagnosis(t *testing.T) {
	client := &MockModelClient{
		GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
			return &GenerateResult{Text: diagnosisJSON}, nil
		},
	}
	c := NewConsultant(client, 6)
	img := &types.Media{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0x01}}

	resp, err := c.Consult(context.Background(), types.ConsultRequest{
		Text:     "",
		Language: "hi",
		Image:    img,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.DiagnosisData)
	assert.Equal(t, types.ResponseDiagnosis, resp.Type)
	assert.Equal(t, "Tomato___Late_blight", resp.DiagnosisData.DiseaseName)
	assert.Equal(t, types.ConfidenceHigh, resp.DiagnosisData.Confidence)

	req := client.lastRequest()
	assert.Equal(t, string(types.ModeDiagnosis), req.Mode)
	assert.Equal(t, SystemInstruction, req.SystemInstruction)
	assert.NotNil(t, req.Schema)
	assert.False(t, req.GoogleSearch)
	assert.Contains(t, req.Prompt, "Language: Hindi.")
	assert.Contains(t, req.Prompt, "Farmer Input: [Image Probe]")
	assert.Contains(t, req.Prompt, "[DIAGNOSIS PROTOCOL]")
	assert.Same(t, img, req.Media[0])
}

func TestConsultant_ConversationMode(t *testing.T) {
	client := &MockModelClient{}
	c := NewConsultant(client, 6)

	resp, err := c.Consult(context.Background(), types.ConsultRequest{Text: "where can I buy seeds", Language: "English"})
	require.NoError(t, err)
	assert.Equal(t, types.ResponseConversation, resp.Type)

	req := client.lastRequest()
	assert.Equal(t, string(types.ModeConversation), req.Mode)
	assert.Contains(t, req.Prompt, "Farmer Input: where can I buy seeds")
	assert.Contains(t, req.Prompt, "[CONVERSATION PROTOCOL]")
	assert.Contains(t, req.Prompt, "ask them where they are located in English.")
}

func TestConsultant_Errors(t *testing.T) {
	t.Run("client error is wrapped through", func(t *testing.T) {
		boom := errors.New("deadline exceeded")
		client := &MockModelClient{
			GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
				return nil, boom
			},
		}
		_, err := NewConsultant(client, 0).Consult(context.Background(), types.ConsultRequest{Text: "x"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed json", func(t *testing.T) {
		client := &MockModelClient{
			GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
				return &GenerateResult{Text: `{"type": "DIAG`}, nil
			},
		}
		_, err := NewConsultant(client, 0).Consult(context.Background(), types.ConsultRequest{Text: "x"})
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		client := &MockModelClient{
			GenerateFunc: func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
				return &GenerateResult{Text: `{"type":"POEM","text_response":"roses"}`}, nil
			},
		}
		_, err := NewConsultant(client, 0).Consult(context.Background(), types.ConsultRequest{Text: "x"})
		assert.ErrorIs(t, err, ErrUnknownResponseType)
	})
}

func TestConsultant_HistoryWindow(t *testing.T) {
	client := &MockModelClient{}
	c := NewConsultant(client, 2)

	history := []types.ChatMessage{
		{Role: types.RoleUser, Content: types.MessageContent{Text: "first question"}},
		{Role: types.RoleModel, Content: types.MessageContent{BotResponse: &types.BotResponse{TextResponse: "first answer"}}},
		{Role: types.RoleUser, Content: types.MessageContent{Text: "second question"}},
		{Role: types.RoleModel, Content: types.MessageContent{BotResponse: &types.BotResponse{TextResponse: "second answer"}}},
	}
	_, err := c.Consult(context.Background(), types.ConsultRequest{History: history, Text: "third"})
	require.NoError(t, err)

	prompt := client.lastRequest().Prompt
	assert.NotContains(t, prompt, "first question")
	assert.Contains(t, prompt, "- Farmer: second question")
	assert.Contains(t, prompt, "- Kisan: second answer")
}

func TestDecodeResponse(t *testing.T) {
	t.Run("code fence", func(t *testing.T) {
		resp, err := DecodeResponse("```json\n{\"type\":\"EXPERT_LIST\",\"text_response\":\"centers\",\"experts_data\":[{\"name\":\"KVK Pune\",\"role\":\"Extension\",\"contact\":\"020\",\"address\":\"Pune\",\"type\":\"GOVT\"}]}\n```")
		require.NoError(t, err)
		assert.Equal(t, types.ResponseExpertList, resp.Type)
		require.Len(t, resp.ExpertsData, 1)
		assert.Equal(t, types.ExpertGovt, resp.ExpertsData[0].Type)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeResponse("   ")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("missing type", func(t *testing.T) {
		_, err := DecodeResponse(`{"text_response":"hi"}`)
		assert.ErrorIs(t, err, ErrUnknownResponseType)
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(types.ConsultRequest{Text: "leaf curl", Language: "ta", Mode: types.ModeConversation})
	assert.True(t, strings.HasPrefix(prompt, "System Mode: Expert Consultant.\nLanguage: Tamil.\nFarmer Input: leaf curl"))
	assert.NotContains(t, prompt, "[RECENT CONVERSATION]")
	assert.Contains(t, prompt, "respond politely in Tamil.")

	prompt = BuildPrompt(types.ConsultRequest{Language: "Klingon", Mode: types.ModeDiagnosis})
	assert.Contains(t, prompt, "Language: Klingon.")
	assert.Contains(t, prompt, "into Klingon.")
	assert.Contains(t, prompt, "prevention_tips array empty")
}

func TestRenderHistory(t *testing.T) {
	history := []types.ChatMessage{
		{Role: types.RoleUser, Content: types.MessageContent{ImageURI: "data:image/jpeg;base64,AAAA"}},
		{Role: types.RoleModel, Content: types.MessageContent{BotResponse: &types.BotResponse{
			TextResponse:  "Found it.",
			DiagnosisData: &types.DiagnosisRecord{DiseaseName: "Early Blight", CropDetected: "Potato"},
		}}},
		{Role: types.RoleUser, Content: types.MessageContent{}},
	}
	got := renderHistory(history)
	assert.Equal(t, "- Farmer: [Image Probe]\n- Kisan: Found it. (diagnosis: Early Blight on Potato)", got)
}
