package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"kisandoctor/internal/types"
)

func TestClassifyLocally(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		reply string
	}{
		{"greeting exact", "hello", GreetingReply},
		{"greeting with trailing words", "  Namaste ji  ", GreetingReply},
		{"greeting uppercase", "HI", GreetingReply},
		{"gratitude substring", "thanks a lot", GratitudeReply},
		{"gratitude thank you", "thank you so much", GratitudeReply},
		{"gratitude inside sentence", "that was very good advice", GratitudeReply},
		{"help", "how to use this", HelpReply},
		{"help mid sentence", "i need support please", HelpReply},
		{"greeting beats help", "hey help me", GreetingReply},
		{"greeting beats gratitude", "hello thanks", GreetingReply},
		{"gratitude beats help", "thanks for the help", GratitudeReply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ClassifyLocally(tt.text, false)
			require.NotNil(t, resp)
			assert.Equal(t, types.ResponseConversation, resp.Type)
			assert.Equal(t, tt.reply, resp.TextResponse)
			assert.Nil(t, resp.DiagnosisData)
		})
	}
}

func TestClassifyLocally_NoMatch(t *testing.T) {
	for _, text := range []string{
		"",
		"my tomato leaves have brown spots",
		"yoghurt",       // greeting keyword is not a word prefix here
		"history lesson", // "hi" only matches as the first word
		"say hello",      // greeting must start the utterance
	} {
		t.Run(text, func(t *testing.T) {
			assert.Nil(t, ClassifyLocally(text, false))
		})
	}
}

func TestClassifyLocally_AsymmetricMatching(t *testing.T) {
	// Gratitude matches inside other words, greeting does not.
	resp := ClassifyLocally("goodbye", false)
	require.NotNil(t, resp)
	assert.Equal(t, GratitudeReply, resp.TextResponse)

	intent, ok := Classify("heyday", false)
	assert.False(t, ok)
	assert.Empty(t, intent)
}

func TestClassify_Intents(t *testing.T) {
	intent, ok := Classify("start", false)
	require.True(t, ok)
	assert.Equal(t, IntentGreeting, intent)

	intent, ok = Classify("shukriya", false)
	require.True(t, ok)
	assert.Equal(t, IntentGratitude, intent)

	intent, ok = Classify("instructions please", false)
	require.True(t, ok)
	assert.Equal(t, IntentHelp, intent)
}

func TestClassifyLocally_ImageAlwaysSkips_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.SampledFrom([]string{"hi", "hello", "thanks", "help", "good", ""}).Draw(rt, "text")
		suffix := rapid.StringMatching(`[a-z ]{0,10}`).Draw(rt, "suffix")
		if resp := ClassifyLocally(text+suffix, true); resp != nil {
			rt.Fatalf("image turn classified locally: %q", text+suffix)
		}
	})
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "hello there", NormalizeText("  Hello There\n"))
	assert.Equal(t, "", NormalizeText("   "))
}
