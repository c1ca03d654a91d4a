package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseTypeValid(t *testing.T) {
	for _, rt := range ResponseTypes {
		assert.True(t, rt.Valid(), rt)
	}
	assert.False(t, ResponseType("").Valid())
	assert.False(t, ResponseType("diagnosis").Valid(), "tags are case sensitive")
}

func TestConfidenceNormalize(t *testing.T) {
	tests := map[Confidence]Confidence{
		"HIGH":   ConfidenceHigh,
		"high":   ConfidenceHigh,
		"LOW":    ConfidenceLow,
		"MEDIUM": ConfidenceLow,
		"":       ConfidenceLow,
	}
	for in, want := range tests {
		assert.Equal(t, want, in.Normalize(), "input %q", in)
	}
}

func TestAdviceClone(t *testing.T) {
	a := Advice{TreatmentSteps: []string{"a"}, PreventionTips: []string{"b"}}
	c := a.Clone()
	c.TreatmentSteps[0] = "changed"
	c.PreventionTips[0] = "changed"
	assert.Equal(t, "a", a.TreatmentSteps[0])
	assert.Equal(t, "b", a.PreventionTips[0])
}

func TestMediaDataURI(t *testing.T) {
	var nilMedia *Media
	assert.Empty(t, nilMedia.DataURI())
	assert.Empty(t, (&Media{MIMEType: "image/png"}).DataURI())

	m := &Media{MIMEType: "image/png", Data: []byte("leaf")}
	assert.Equal(t, "data:image/png;base64,bGVhZg==", m.DataURI())
	assert.Equal(t, "data:application/octet-stream;base64,bGVhZg==", (&Media{Data: []byte("leaf")}).DataURI())
}

func TestParseDataURI(t *testing.T) {
	m, err := ParseDataURI("data:audio/webm;base64,b3B1cw==")
	require.NoError(t, err)
	assert.Equal(t, &Media{MIMEType: "audio/webm", Data: []byte("opus")}, m)

	m, err = ParseDataURI("bGVhZg==")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", m.MIMEType)
	assert.Equal(t, []byte("leaf"), m.Data)

	m, err = ParseDataURI("")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = ParseDataURI("data:image/png;base64")
	assert.Error(t, err)

	_, err = ParseDataURI("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestParseDataURI_RoundTrip(t *testing.T) {
	orig := &Media{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8, 0xff, 0x00}}
	back, err := ParseDataURI(orig.DataURI())
	require.NoError(t, err)
	assert.Equal(t, orig, back)
}

func TestLanguageLookup(t *testing.T) {
	l, ok := LookupLanguage(" HI ")
	require.True(t, ok)
	assert.Equal(t, "Hindi", l.Name)

	l, ok = LookupLanguage("marathi")
	require.True(t, ok)
	assert.Equal(t, "mr", l.Code)

	l, ok = LookupLanguage("தமிழ்")
	require.True(t, ok)
	assert.Equal(t, "ta", l.Code)

	_, ok = LookupLanguage("Klingon")
	assert.False(t, ok)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, DefaultLanguage, LanguageName(""))
	assert.Equal(t, "Bengali", LanguageName("bn"))
	assert.Equal(t, "Odia", LanguageName("Odia"), "unknown values pass through")
}

func TestBotResponseJSONFieldNames(t *testing.T) {
	raw := `{
		"type": "DIAGNOSIS",
		"text_response": "Found it.",
		"diagnosis_data": {
			"disease_name": "Tomato___Bacterial_spot",
			"confidence": "HIGH",
			"crop_detected": "Tomato",
			"explanation": "Xanthomonas.",
			"treatment_steps": ["Copper spray."],
			"prevention_tips": ["Clean tools."]
		},
		"experts_data": null
	}`
	var resp BotResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, ResponseDiagnosis, resp.Type)
	require.NotNil(t, resp.DiagnosisData)
	assert.Equal(t, "Tomato", resp.DiagnosisData.CropDetected)
	assert.Equal(t, []string{"Copper spray."}, resp.DiagnosisData.TreatmentSteps)
	assert.Nil(t, resp.ExpertsData)
}
