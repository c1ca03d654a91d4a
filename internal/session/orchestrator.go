// Package session runs one chat turn end to end and keeps the conversation.
//
// Architecture:
//
//	Input → Cache → Local Intent → Diagnosis Service → Ground-Truth Repair → Cache → Response
//
// The orchestrator never fails a turn: upstream errors become a polite
// conversation reply and are not cached.
package session

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"kisandoctor/internal/cache"
	"kisandoctor/internal/groundtruth"
	"kisandoctor/internal/logging"
	"kisandoctor/internal/metrics"
	"kisandoctor/internal/perception"
	"kisandoctor/internal/types"
)

// FailureText is the reply used whenever the diagnosis service fails.
const FailureText = "System Timeout. Please check your connection."

// LiveDatasetRef is stamped on diagnoses the model produced on its own.
const LiveDatasetRef = "Global-Agri-Database-Live"

// groundTruthRefPrefix prefixes dataset_ref when local knowledge was merged in.
const groundTruthRefPrefix = "Kisan-GTKB:"

// SafetyNetTips replace an empty prevention list.
var SafetyNetTips = []string{
	"Use clean, certified seeds and tools.",
	"Maintain proper field hygiene and drainage.",
}

// Orchestrator routes one turn through cache, local classifier and model.
// It is safe for concurrent use; identical in-flight turns share one model call.
type Orchestrator struct {
	service types.DiagnosisService
	cache   *cache.ResponseCache
	metrics *metrics.Metrics
	flight  singleflight.Group
	noCache bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithCache injects the session cache. Without it each orchestrator owns a
// fresh unbounded cache.
func WithCache(c *cache.ResponseCache) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithoutCache turns memoization off; every turn reaches the classifier or model.
func WithoutCache() Option {
	return func(o *Orchestrator) {
		o.cache = nil
		o.noCache = true
	}
}

// WithMetrics records turn routing.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates an orchestrator over service.
func NewOrchestrator(service types.DiagnosisService, opts ...Option) *Orchestrator {
	o := &Orchestrator{service: service}
	for _, opt := range opts {
		opt(o)
	}
	if o.cache == nil && !o.noCache {
		// Config{} never fails.
		o.cache, _ = cache.New(cache.Config{})
	}
	return o
}

// Cache returns the orchestrator's response cache, nil when disabled.
func (o *Orchestrator) Cache() *cache.ResponseCache {
	return o.cache
}

// HandleTurn answers one farmer turn. It always returns a response.
func (o *Orchestrator) HandleTurn(ctx context.Context, history []types.ChatMessage, text string, image, audio *types.Media, language string) *types.BotResponse {
	resp, _ := o.Route(ctx, history, text, image, audio, language)
	return resp
}

// Route is HandleTurn that also reports how the turn was answered. A turn
// collapsed onto an identical in-flight call reports RouteCache.
//
// Turns carrying audio bypass the cache: the recording is not part of the
// key, so two different voice notes would otherwise share an answer.
func (o *Orchestrator) Route(ctx context.Context, history []types.ChatMessage, text string, image, audio *types.Media, language string) (*types.BotResponse, metrics.Route) {
	hasImage := image != nil && len(image.Data) > 0
	if !hasImage {
		image = nil
	}
	if audio != nil && len(audio.Data) == 0 {
		audio = nil
	}
	cacheable := audio == nil

	// 1. Cache
	if cacheable {
		if resp, ok := o.cache.Lookup(text, image); ok {
			o.metrics.ObserveTurn(metrics.RouteCache)
			return resp, metrics.RouteCache
		}
	}

	// 2. Local intent
	if !hasImage {
		if resp := perception.ClassifyLocally(text, false); resp != nil {
			if cacheable {
				o.cache.Store(text, nil, resp)
			}
			o.metrics.ObserveTurn(metrics.RouteLocal)
			return resp, metrics.RouteLocal
		}
	}

	// 3-5. Model, repair, cache; collapsed per key
	if !cacheable {
		return o.consult(ctx, history, text, image, audio, language, false)
	}
	type result struct {
		resp  *types.BotResponse
		route metrics.Route
	}
	v, _, shared := o.flight.Do(o.cache.Key(text, image), func() (interface{}, error) {
		if resp, ok := o.cache.Peek(text, image); ok {
			return result{resp, metrics.RouteCache}, nil
		}
		resp, route := o.consult(ctx, history, text, image, audio, language, true)
		return result{resp, route}, nil
	})
	r := v.(result)
	if shared {
		logging.SessionDebug("turn collapsed onto an in-flight call")
		if r.route == metrics.RouteModel {
			r.route = metrics.RouteCache
		}
	}
	return r.resp, r.route
}

func (o *Orchestrator) consult(ctx context.Context, history []types.ChatMessage, text string, image, audio *types.Media, language string, store bool) (*types.BotResponse, metrics.Route) {
	mode := types.ModeConversation
	if image != nil {
		mode = types.ModeDiagnosis
	}

	start := time.Now()
	resp, err := o.service.Consult(ctx, types.ConsultRequest{
		History:  history,
		Text:     text,
		Language: types.LanguageName(language),
		Image:    image,
		Audio:    audio,
		Mode:     mode,
	})
	o.metrics.ObserveModelCall(time.Since(start))

	if err != nil || resp == nil {
		logging.SessionWarn("diagnosis service failed (mode=%s): %v", mode, err)
		o.metrics.ObserveTurn(metrics.RouteFailure)
		return FailureResponse(), metrics.RouteFailure
	}

	if resp.DiagnosisData != nil {
		if FinalizeDiagnosis(resp.DiagnosisData) {
			o.metrics.ObserveMerge()
		}
	}

	if store {
		o.cache.Store(text, image, resp)
	}
	o.metrics.ObserveTurn(metrics.RouteModel)
	return resp, metrics.RouteModel
}

// FailureResponse is the generic reply for an unreachable model.
func FailureResponse() *types.BotResponse {
	return &types.BotResponse{
		Type:         types.ResponseConversation,
		TextResponse: FailureText,
	}
}

// FinalizeDiagnosis repairs and stamps a model diagnosis in place. It reports
// whether ground-truth content was merged in.
//
// Crop and confidence always stay the model's; only missing explanation or
// treatment is taken from the knowledge base.
func FinalizeDiagnosis(d *types.DiagnosisRecord) bool {
	d.TreatmentSteps = compact(d.TreatmentSteps)
	d.PreventionTips = compact(d.PreventionTips)

	merged := false
	if strings.TrimSpace(d.Explanation) == "" || len(d.TreatmentSteps) == 0 {
		res := groundtruth.Resolve(d.DiseaseName)
		if strings.TrimSpace(d.Explanation) == "" {
			d.Explanation = res.Advice.Explanation
		}
		if len(d.TreatmentSteps) == 0 {
			d.TreatmentSteps = res.Advice.TreatmentSteps
		}
		ref := res.RuleID
		if ref == "" {
			ref = string(res.Kind)
		}
		d.ModelEngine = types.EngineHybrid
		d.DatasetRef = groundTruthRefPrefix + ref
		merged = true
		logging.AdviceDebug("merged ground truth %s into %q", ref, d.DiseaseName)
	} else {
		d.ModelEngine = types.EngineGeminiVision
		d.DatasetRef = LiveDatasetRef
	}

	if len(d.PreventionTips) == 0 {
		d.PreventionTips = append([]string(nil), SafetyNetTips...)
	}
	d.IsSafeOrganic = groundtruth.IsSafeOrganic(d.TreatmentSteps)
	d.Confidence = d.Confidence.Normalize()
	return merged
}

// compact drops blank entries.
func compact(items []string) []string {
	out := items[:0:0]
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}
