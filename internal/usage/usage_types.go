package usage

// TokenCounts holds input/output sums.
type TokenCounts struct {
	Calls    int64 `json:"calls"`
	Failures int64 `json:"failures"`
	Input    int64 `json:"input"`
	Output   int64 `json:"output"`
	Total    int64 `json:"total"`
}

// Add folds one call into the counts.
func (tc *TokenCounts) Add(input, output int, success bool) {
	tc.Calls++
	if !success {
		tc.Failures++
	}
	tc.Input += int64(input)
	tc.Output += int64(output)
	tc.Total += int64(input + output)
}

// Summary holds counters broken down by model and call mode.
type Summary struct {
	Total   TokenCounts            `json:"total"`
	ByMode  map[string]TokenCounts `json:"by_mode"`
	ByModel map[string]TokenCounts `json:"by_model"`
	// AvgDurationMs is the mean latency of all calls.
	AvgDurationMs int64 `json:"avg_duration_ms"`
}

func newSummary() Summary {
	return Summary{
		ByMode:  make(map[string]TokenCounts),
		ByModel: make(map[string]TokenCounts),
	}
}
