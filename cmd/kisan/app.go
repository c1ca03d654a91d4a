package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"kisandoctor/internal/cache"
	"kisandoctor/internal/config"
	"kisandoctor/internal/logging"
	"kisandoctor/internal/metrics"
	"kisandoctor/internal/perception"
	"kisandoctor/internal/session"
	"kisandoctor/internal/store"
	"kisandoctor/internal/types"
	"kisandoctor/internal/usage"
	"kisandoctor/internal/weather"
)

// app is the wired process: storage, model client and the turn pipeline.
type app struct {
	cfg     *config.Config
	store   *store.LocalStore
	tracer  *perception.TracingClient
	usage   *usage.Tracker
	metrics *metrics.Metrics
	reg     *prometheus.Registry

	orchestrator *session.Orchestrator
	forecaster   *weather.Forecaster

	stopMetrics context.CancelFunc
}

// openStore opens the configured database. Commands that never call the
// model use this alone.
func openStore(c *config.Config) (*store.LocalStore, error) {
	if err := c.ValidateLocal(); err != nil {
		return nil, err
	}
	return store.NewLocalStoreWithDriver(c.Store.Driver, c.Store.DatabasePath)
}

// newApp wires everything a model-backed command needs.
func newApp(ctx context.Context, c *config.Config) (*app, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	st, err := openStore(c)
	if err != nil {
		return nil, err
	}

	gemini, err := perception.NewGeminiClient(ctx, perception.GeminiConfig{
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		Timeout:     c.GetLLMTimeout(),
		Temperature: c.LLM.Temperature,
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}
	tracker := usage.NewTracker(st)
	tracer := perception.NewTracingClient(gemini, tracker)

	a := &app{
		cfg:        c,
		store:      st,
		tracer:     tracer,
		usage:      tracker,
		forecaster: weather.NewForecaster(tracer),
	}

	if c.Metrics.Enabled {
		a.reg = prometheus.NewRegistry()
		a.metrics = metrics.NewMetrics(a.reg)
		mctx, cancel := context.WithCancel(context.Background())
		a.stopMetrics = cancel
		go func() {
			if err := metrics.Serve(mctx, c.Metrics.Address, a.reg); err != nil {
				logging.BootError("metrics server stopped: %v", err)
			}
		}()
	}

	opts := []session.Option{session.WithMetrics(a.metrics)}
	if c.Cache.Enabled {
		rc, err := cache.New(cache.Config{
			SignatureWindow: c.Cache.SignatureWindow,
			MaxEntries:      c.Cache.MaxEntries,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, session.WithCache(rc))
	} else {
		opts = append(opts, session.WithoutCache())
	}

	consultant := perception.NewConsultant(tracer, c.Session.HistoryTurns)
	a.orchestrator = session.NewOrchestrator(consultant, opts...)

	logging.Boot("model=%s driver=%s db=%s cache=%v", gemini.GetModel(), st.Driver(), c.Store.DatabasePath, c.Cache.Enabled)
	return a, nil
}

// conversation opens a conversation for user (nil = guest) and restores
// the user's history.
func (a *app) conversation(ctx context.Context, user *types.User) (*session.Conversation, error) {
	opts := []session.ConversationOption{
		session.WithLanguage(a.cfg.Session.Language),
		session.WithConversationMetrics(a.metrics),
	}
	if user != nil {
		opts = append(opts, session.WithUser(user.ID))
	}
	conv := session.NewConversation(a.orchestrator, a.store, opts...)
	if err := conv.Load(ctx); err != nil {
		conv.Close()
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return conv, nil
}

// Close flushes pending traces and releases resources.
func (a *app) Close() {
	if a.tracer != nil {
		a.tracer.Flush()
	}
	if a.usage != nil {
		a.usage.LogSummary()
	}
	if a.orchestrator != nil && a.orchestrator.Cache() != nil {
		s := a.orchestrator.Cache().Stats()
		logging.Cache("cache: %d items, %d hits, %d misses, %d evictions (hit rate %.2f)",
			s.Items, s.Hits, s.Misses, s.Evictions, s.HitRate)
	}
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.StoreError("close: %v", err)
		}
	}
}

// resolveUser signs a user in with a PIN, or resumes the last active user
// when resume is set and no username is given.
func resolveUser(ctx context.Context, st *store.LocalStore, username, pin string, resume bool) (*types.User, error) {
	if username != "" {
		if pin == "" {
			return nil, errors.New("--pin is required with --user")
		}
		return st.Authenticate(ctx, username, pin)
	}
	if !resume {
		return nil, nil
	}
	u, err := st.LastActiveUser(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}
