package perception

import (
	"strings"

	"kisandoctor/internal/logging"
	"kisandoctor/internal/types"
)

// =============================================================================
// LOCAL INTENT CLASSIFIER
// =============================================================================
// Cheap keyword rules that answer trivial chit-chat without a model call.

// Intent is a locally recognised conversational intent.
type Intent string

const (
	IntentGreeting  Intent = "GREETING"
	IntentGratitude Intent = "GRATITUDE"
	IntentHelp      Intent = "HELP"
)

// Canned replies for the local intents.
const (
	GreetingReply  = "Namaste! I am ready to help. Please upload a clear photo of your crop for diagnosis."
	GratitudeReply = "You are welcome! Let me know if you need help with another crop."
	HelpReply      = "It's simple: \n1. Click the camera icon.\n2. Upload a photo of the affected leaf.\n3. I will tell you the disease and cure."
)

// keywordMatcher decides whether a normalized utterance triggers a keyword.
type keywordMatcher func(normalized, keyword string) bool

// matchWordPrefix accepts the keyword as the whole utterance or as its first word.
func matchWordPrefix(normalized, keyword string) bool {
	return normalized == keyword || strings.HasPrefix(normalized, keyword+" ")
}

// matchSubstring accepts the keyword anywhere, including inside other words.
func matchSubstring(normalized, keyword string) bool {
	return strings.Contains(normalized, keyword)
}

type intentPattern struct {
	intent   Intent
	keywords []string
	match    keywordMatcher
	reply    string
}

// intentPatterns are evaluated in priority order. Greeting is anchored to the
// start of the utterance; gratitude and help match anywhere, so "good morning"
// is gratitude and "yoghurt" is not a greeting.
var intentPatterns = []intentPattern{
	{
		intent:   IntentGreeting,
		keywords: []string{"hi", "hello", "hey", "namaste", "namaskar", "vanakkam", "ssup", "yo", "start", "begin"},
		match:    matchWordPrefix,
		reply:    GreetingReply,
	},
	{
		intent:   IntentGratitude,
		keywords: []string{"thank", "thanks", "dhanyavad", "shukriya", "cool", "good", "great", "awesome", "nandri"},
		match:    matchSubstring,
		reply:    GratitudeReply,
	},
	{
		intent:   IntentHelp,
		keywords: []string{"help", "support", "guide", "how to", "instruction"},
		match:    matchSubstring,
		reply:    HelpReply,
	},
}

// NormalizeText trims and lowercases user input. The cache uses the same form.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Classify returns the first intent whose keywords match text. Turns that carry
// an image are never classified locally.
func Classify(text string, hasImage bool) (Intent, bool) {
	p, ok := classify(text, hasImage)
	if !ok {
		return "", false
	}
	return p.intent, true
}

// ClassifyLocally returns a canned CONVERSATION response when text matches a
// local intent, or nil when the turn must go to the model.
func ClassifyLocally(text string, hasImage bool) *types.BotResponse {
	p, ok := classify(text, hasImage)
	if !ok {
		return nil
	}
	logging.PerceptionDebug("local intent %s for %q", p.intent, text)
	return &types.BotResponse{
		Type:         types.ResponseConversation,
		TextResponse: p.reply,
	}
}

func classify(text string, hasImage bool) (intentPattern, bool) {
	if hasImage {
		return intentPattern{}, false
	}
	normalized := NormalizeText(text)
	for _, p := range intentPatterns {
		for _, kw := range p.keywords {
			if p.match(normalized, kw) {
				return p, true
			}
		}
	}
	return intentPattern{}, false
}
