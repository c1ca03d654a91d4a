package store

import (
	"context"
	"fmt"
	"time"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// StoreModelTrace persists a model call trace. It satisfies the perception
// trace sink and is called from a background goroutine.
func (s *LocalStore) StoreModelTrace(trace *types.ModelTrace) error {
	if trace == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO model_traces
		(id, mode, model, prompt, response, media_count, prompt_tokens, output_tokens,
		 duration_ms, success, error_message, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trace.ID, trace.Mode, trace.Model, trace.Prompt, trace.Response, trace.MediaCount,
		trace.PromptTokens, trace.OutputTokens, trace.DurationMs, trace.Success,
		trace.ErrorMessage, trace.Timestamp.UnixNano(),
	)
	if err != nil {
		logging.StoreError("Failed to store model trace %s: %v", trace.ID, err)
		return fmt.Errorf("store model trace: %w", err)
	}
	logging.StoreDebug("Model trace stored: %s (mode=%s, duration=%dms)", trace.ID, trace.Mode, trace.DurationMs)
	return nil
}

// RecentTraces returns up to limit traces, newest first.
func (s *LocalStore) RecentTraces(ctx context.Context, limit int) ([]types.ModelTrace, error) {
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, model, prompt, response, media_count, prompt_tokens, output_tokens,
		       duration_ms, success, error_message, timestamp
		FROM model_traces ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query traces: %w", err)
	}
	defer rows.Close()

	var traces []types.ModelTrace
	for rows.Next() {
		var t types.ModelTrace
		var ts int64
		if err := rows.Scan(&t.ID, &t.Mode, &t.Model, &t.Prompt, &t.Response, &t.MediaCount,
			&t.PromptTokens, &t.OutputTokens, &t.DurationMs, &t.Success, &t.ErrorMessage, &ts); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		t.Timestamp = time.Unix(0, ts).UTC()
		traces = append(traces, t)
	}
	return traces, rows.Err()
}
