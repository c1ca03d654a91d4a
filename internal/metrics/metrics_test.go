package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveTurn(RouteCache)
	m.ObserveTurn(RouteModel)
	m.ObserveTurn(RouteModel)
	m.ObserveMerge()
	m.ObservePersistenceError()
	m.ObserveModelCall(1500 * time.Millisecond)
	m.ConversationOpened()
	m.ConversationOpened()
	m.ConversationClosed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("cache")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("model")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GroundTruthMerges))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistenceErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveConversation))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "kisan_model_call_duration_seconds")
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn(RouteLocal)
		m.ObserveMerge()
		m.ObservePersistenceError()
		m.ObserveModelCall(time.Second)
		m.ConversationOpened()
		m.ConversationClosed()
	})
}

func TestServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", prometheus.NewRegistry()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
