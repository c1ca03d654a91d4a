package perception

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"kisandoctor/internal/types"
)

// =============================================================================
// MOCK IMPLEMENTATIONS
// =============================================================================

// MockModelClient records requests and answers through GenerateFunc.
type MockModelClient struct {
	mu           sync.Mutex
	Requests     []GenerateRequest
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

func (m *MockModelClient) GenerateJSON(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResult{Text: `{"type":"CONVERSATION","text_response":"ok"}`}, nil
}

func (m *MockModelClient) GetModel() string { return "mock-model" }

func (m *MockModelClient) lastRequest() GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests[len(m.Requests)-1]
}

// mockTraceStore implements TraceStore for testing.
type mockTraceStore struct {
	mu     sync.Mutex
	traces []*types.ModelTrace
	err    error
}

func (m *mockTraceStore) StoreModelTrace(trace *types.ModelTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = append(m.traces, trace)
	return m.err
}

func (m *mockTraceStore) getTraces() []*types.ModelTrace {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.ModelTrace(nil), m.traces...)
}

// fakeGenerator stands in for *genai.Models.
type fakeGenerator struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	deadline bool
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	_, f.deadline = ctx.Deadline()
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText(text, genai.RoleModel)},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     120,
			CandidatesTokenCount: 40,
		},
	}
}
