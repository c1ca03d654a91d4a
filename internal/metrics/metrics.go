// Package metrics exposes Prometheus counters for turn routing, cache
// behaviour and model latency.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kisandoctor/internal/logging"
)

// Route says how a turn was answered.
type Route string

const (
	RouteCache   Route = "cache"
	RouteLocal   Route = "local"
	RouteModel   Route = "model"
	RouteFailure Route = "failure"
)

// Metrics holds Prometheus metrics for the diagnosis core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TurnsTotal         *prometheus.CounterVec // Turns by route
	ModelCallDuration  prometheus.Histogram   // External model latency in seconds
	GroundTruthMerges  prometheus.Counter     // Diagnoses repaired from the knowledge base
	PersistenceErrors  prometheus.Counter     // Swallowed storage failures
	ActiveConversation prometheus.Gauge       // Conversations currently open
}

// NewMetrics creates and registers the metrics with reg.
// The registerer parameter allows flexible registration (e.g., global registry, test registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kisan_turns_total",
			Help: "Chat turns handled, by how they were answered",
		}, []string{"route"}),
		ModelCallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "kisan_model_call_duration_seconds",
			Help:    "Latency of external diagnosis model calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
		GroundTruthMerges: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kisan_ground_truth_merges_total",
			Help: "Diagnoses whose explanation or treatment came from the local knowledge base",
		}),
		PersistenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kisan_persistence_errors_total",
			Help: "History or report writes that failed and were skipped",
		}),
		ActiveConversation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "kisan_active_conversations",
			Help: "Conversations currently open in this process",
		}),
	}

	reg.MustRegister(m.TurnsTotal)
	reg.MustRegister(m.ModelCallDuration)
	reg.MustRegister(m.GroundTruthMerges)
	reg.MustRegister(m.PersistenceErrors)
	reg.MustRegister(m.ActiveConversation)
	return m
}

// ObserveTurn counts one turn.
func (m *Metrics) ObserveTurn(route Route) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(string(route)).Inc()
}

// ObserveModelCall records model latency.
func (m *Metrics) ObserveModelCall(d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallDuration.Observe(d.Seconds())
}

// ObserveMerge counts a knowledge-base repair.
func (m *Metrics) ObserveMerge() {
	if m == nil {
		return
	}
	m.GroundTruthMerges.Inc()
}

// ObservePersistenceError counts a swallowed storage failure.
func (m *Metrics) ObservePersistenceError() {
	if m == nil {
		return
	}
	m.PersistenceErrors.Inc()
}

// ConversationOpened and ConversationClosed track open conversations.
func (m *Metrics) ConversationOpened() {
	if m == nil {
		return
	}
	m.ActiveConversation.Inc()
}

func (m *Metrics) ConversationClosed() {
	if m == nil {
		return
	}
	m.ActiveConversation.Dec()
}

// Serve exposes gatherer on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logging.Boot("metrics listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
