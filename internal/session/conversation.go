package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/metrics"
	"kisandoctor/internal/types"
)

// ErrEmptyTurn is returned when a turn carries no text, image or audio.
var ErrEmptyTurn = errors.New("turn has no text, image or audio")

// ImageScanSymptoms labels reports created from a photo without text.
const ImageScanSymptoms = "Image Scan"

// Conversation is one farmer's chat: the in-memory transcript, the
// orchestrator that answers it and optional persistence.
//
// The in-memory transcript is authoritative. Storage failures are logged
// and never surface to the farmer.
type Conversation struct {
	mu           sync.Mutex
	orchestrator *Orchestrator
	store        types.HistoryStore
	metrics      *metrics.Metrics
	now          func() time.Time

	userID     string
	language   string
	messages   []types.ChatMessage
	lastReport *types.FarmerReport
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithUser signs the conversation in so history and reports are persisted.
func WithUser(userID string) ConversationOption {
	return func(c *Conversation) { c.userID = userID }
}

// WithLanguage sets the reply language (code or name).
func WithLanguage(language string) ConversationOption {
	return func(c *Conversation) { c.language = language }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ConversationOption {
	return func(c *Conversation) { c.now = now }
}

// WithConversationMetrics records persistence failures and open conversations.
func WithConversationMetrics(m *metrics.Metrics) ConversationOption {
	return func(c *Conversation) { c.metrics = m }
}

// NewConversation creates a conversation. store may be nil.
func NewConversation(o *Orchestrator, store types.HistoryStore, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		orchestrator: o,
		store:        store,
		now:          time.Now,
		language:     types.DefaultLanguage,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics.ConversationOpened()
	return c
}

// Close releases the conversation.
func (c *Conversation) Close() {
	c.metrics.ConversationClosed()
}

// SetUser switches the signed-in user. The transcript is cleared; call Load
// to restore the new user's history.
func (c *Conversation) SetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.messages = nil
	c.lastReport = nil
}

// UserID returns the signed-in user, or "".
func (c *Conversation) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// SetLanguage changes the reply language for later turns.
func (c *Conversation) SetLanguage(language string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = language
}

// Language returns the current reply language.
func (c *Conversation) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// Load replaces the transcript with the signed-in user's stored history.
func (c *Conversation) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil || c.userID == "" {
		return nil
	}
	messages, err := c.store.LoadHistory(ctx, c.userID)
	if err != nil {
		return err
	}
	c.messages = messages
	logging.Session("restored %d messages for %s", len(messages), c.userID)
	return nil
}

// Messages returns a copy of the transcript.
func (c *Conversation) Messages() []types.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.ChatMessage(nil), c.messages...)
}

// LastReport returns the report built from the latest diagnosis, if any.
func (c *Conversation) LastReport() *types.FarmerReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastReport == nil {
		return nil
	}
	r := *c.lastReport
	return &r
}

// Send runs one turn: record the farmer's message, answer it, record the
// reply, persist, and file a report for fresh diagnoses.
func (c *Conversation) Send(ctx context.Context, text string, image, audio *types.Media) (*types.BotResponse, error) {
	if image != nil && len(image.Data) == 0 {
		image = nil
	}
	if audio != nil && len(audio.Data) == 0 {
		audio = nil
	}
	if strings.TrimSpace(text) == "" && image == nil && audio == nil {
		return nil, ErrEmptyTurn
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	history := append([]types.ChatMessage(nil), c.messages...)
	c.messages = append(c.messages, types.ChatMessage{
		ID:   uuid.NewString(),
		Role: types.RoleUser,
		Content: types.MessageContent{
			Text:     text,
			ImageURI: image.DataURI(),
			AudioURI: audio.DataURI(),
		},
		Timestamp: c.now(),
	})

	resp, route := c.orchestrator.Route(ctx, history, text, image, audio, c.language)

	c.messages = append(c.messages, types.ChatMessage{
		ID:        uuid.NewString(),
		Role:      types.RoleModel,
		Content:   types.MessageContent{BotResponse: resp},
		Timestamp: c.now(),
	})
	c.persistHistory(ctx)

	// A replayed diagnosis was already filed when the model first produced it.
	if resp.Type == types.ResponseDiagnosis && resp.DiagnosisData != nil && route != metrics.RouteCache {
		report := c.buildReport(text, image, resp.DiagnosisData)
		c.lastReport = &report
		c.persistReport(ctx, report)
	}
	return resp, nil
}

func (c *Conversation) buildReport(text string, image *types.Media, d *types.DiagnosisRecord) types.FarmerReport {
	symptoms := text
	if strings.TrimSpace(symptoms) == "" {
		symptoms = ImageScanSymptoms
	}
	return types.FarmerReport{
		ID:        uuid.NewString(),
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Crop:      d.CropDetected,
		Symptoms:  symptoms,
		Diagnosis: *d,
		ImageURI:  image.DataURI(),
	}
}

func (c *Conversation) persistHistory(ctx context.Context) {
	if c.store == nil || c.userID == "" {
		return
	}
	if err := c.store.SaveHistory(ctx, c.userID, c.messages); err != nil {
		c.persistenceFailed("save history", err)
	}
	if err := c.store.UpdateLastActive(ctx, c.userID); err != nil {
		c.persistenceFailed("update last active", err)
	}
}

func (c *Conversation) persistReport(ctx context.Context, report types.FarmerReport) {
	if c.store == nil || c.userID == "" {
		return
	}
	if err := c.store.SaveReport(ctx, c.userID, report); err != nil {
		c.persistenceFailed("save report", err)
	}
}

func (c *Conversation) persistenceFailed(op string, err error) {
	logging.StoreError("%s for %s failed: %v", op, c.userID, err)
	c.metrics.ObservePersistenceError()
}
