package types

import "context"

// DiagnosisService is the external generative model seen from the core.
// Implementations may fail for any reason; callers own the recovery policy.
type DiagnosisService interface {
	Consult(ctx context.Context, req ConsultRequest) (*BotResponse, error)
}

// PromptMode selects which protocol block is sent to the model.
type PromptMode string

const (
	ModeDiagnosis    PromptMode = "DIAGNOSIS"
	ModeConversation PromptMode = "CONVERSATION"
)

// ConsultRequest is a single call to the external diagnosis service.
type ConsultRequest struct {
	History  []ChatMessage
	Text     string
	Language string
	Image    *Media
	Audio    *Media
	Mode     PromptMode
}

// HistoryStore is the persistence contract the conversation layer relies on.
type HistoryStore interface {
	SaveHistory(ctx context.Context, userID string, messages []ChatMessage) error
	LoadHistory(ctx context.Context, userID string) ([]ChatMessage, error)
	SaveReport(ctx context.Context, userID string, report FarmerReport) error
	UpdateLastActive(ctx context.Context, userID string) error
}
