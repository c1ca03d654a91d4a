package perception

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// TraceStore defines the interface for storing model traces.
type TraceStore interface {
	StoreModelTrace(trace *types.ModelTrace) error
}

type modelGetter interface {
	GetModel() string
}

// TracingClient wraps any ModelClient and records every call.
type TracingClient struct {
	underlying ModelClient
	store      TraceStore
	wg         sync.WaitGroup
}

var _ ModelClient = (*TracingClient)(nil)

// NewTracingClient creates a tracing wrapper around an existing client.
// A nil store still logs calls.
func NewTracingClient(underlying ModelClient, store TraceStore) *TracingClient {
	return &TracingClient{underlying: underlying, store: store}
}

// GenerateJSON implements ModelClient with tracing.
func (tc *TracingClient) GenerateJSON(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	start := time.Now()
	logging.API("model call started: mode=%s prompt_len=%d media=%d", req.Mode, len(req.Prompt), countMedia(req.Media))

	result, err := tc.underlying.GenerateJSON(ctx, req)

	duration := time.Since(start)
	if err != nil {
		logging.APIError("model call failed: mode=%s duration=%v error=%s", req.Mode, duration, err.Error())
	} else {
		logging.API("model call completed: mode=%s duration=%v response_len=%d", req.Mode, duration, len(result.Text))
	}

	trace := &types.ModelTrace{
		ID:         uuid.NewString(),
		Mode:       req.Mode,
		Prompt:     req.Prompt,
		MediaCount: countMedia(req.Media),
		DurationMs: duration.Milliseconds(),
		Success:    err == nil,
		Timestamp:  start,
	}
	if mg, ok := tc.underlying.(modelGetter); ok {
		trace.Model = mg.GetModel()
	}
	if result != nil {
		trace.Response = result.Text
		trace.PromptTokens = result.PromptTokens
		trace.OutputTokens = result.OutputTokens
		if result.Model != "" {
			trace.Model = result.Model
		}
	}
	if err != nil {
		trace.ErrorMessage = err.Error()
	}

	// Stored in the background so the turn is not held up by the disk.
	if tc.store != nil {
		tc.wg.Add(1)
		go func() {
			defer tc.wg.Done()
			if storeErr := tc.store.StoreModelTrace(trace); storeErr != nil {
				logging.APIDebug("Failed to store model trace: %v", storeErr)
			}
		}()
	}

	return result, err
}

// Flush blocks until every pending trace write has finished.
func (tc *TracingClient) Flush() {
	tc.wg.Wait()
}

func countMedia(media []*types.Media) int {
	n := 0
	for _, m := range media {
		if m != nil && len(m.Data) > 0 {
			n++
		}
	}
	return n
}
