package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"kisandoctor/internal/types"
)

// =============================================================================
// MOCK IMPLEMENTATIONS
// =============================================================================

// MockDiagnosisService counts calls and answers through ConsultFunc.
type MockDiagnosisService struct {
	calls       atomic.Int32
	mu          sync.Mutex
	requests    []types.ConsultRequest
	ConsultFunc func(ctx context.Context, req types.ConsultRequest) (*types.BotResponse, error)
}

func (m *MockDiagnosisService) Consult(ctx context.Context, req types.ConsultRequest) (*types.BotResponse, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.ConsultFunc != nil {
		return m.ConsultFunc(ctx, req)
	}
	return &types.BotResponse{Type: types.ResponseConversation, TextResponse: "model says hi"}, nil
}

func (m *MockDiagnosisService) Calls() int {
	return int(m.calls.Load())
}

func (m *MockDiagnosisService) LastRequest() types.ConsultRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// respondWith returns a ConsultFunc producing a fresh copy of resp per call.
func respondWith(resp types.BotResponse) func(context.Context, types.ConsultRequest) (*types.BotResponse, error) {
	return func(context.Context, types.ConsultRequest) (*types.BotResponse, error) {
		out := resp
		if resp.DiagnosisData != nil {
			d := *resp.DiagnosisData
			d.TreatmentSteps = append([]string(nil), d.TreatmentSteps...)
			d.PreventionTips = append([]string(nil), d.PreventionTips...)
			out.DiagnosisData = &d
		}
		return &out, nil
	}
}

var errUpstream = errors.New("upstream unavailable")

// memHistoryStore is an in-memory types.HistoryStore with failure switches.
type memHistoryStore struct {
	mu          sync.Mutex
	history     map[string][]types.ChatMessage
	reports     map[string][]types.FarmerReport
	activeCalls int
	failSaves   bool
}

func newMemHistoryStore() *memHistoryStore {
	return &memHistoryStore{
		history: make(map[string][]types.ChatMessage),
		reports: make(map[string][]types.FarmerReport),
	}
}

func (s *memHistoryStore) SaveHistory(_ context.Context, userID string, messages []types.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("disk full")
	}
	s.history[userID] = append([]types.ChatMessage(nil), messages...)
	return nil
}

func (s *memHistoryStore) LoadHistory(_ context.Context, userID string) ([]types.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.history[userID]...), nil
}

func (s *memHistoryStore) SaveReport(_ context.Context, userID string, report types.FarmerReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("disk full")
	}
	s.reports[userID] = append(s.reports[userID], report)
	return nil
}

func (s *memHistoryStore) UpdateLastActive(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCalls++
	return nil
}
