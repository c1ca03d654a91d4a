// Package types provides shared type definitions used across Kisan Plant Doctor packages.
// Types in this package should be foundational data structures with no complex dependencies.
// JSON field names follow the wire schema of the diagnosis model and the persisted rows.
package types

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ResponseType tags what kind of payload a BotResponse carries.
type ResponseType string

const (
	ResponseConversation          ResponseType = "CONVERSATION"
	ResponseDiagnosis             ResponseType = "DIAGNOSIS"
	ResponseAskLocationForExperts ResponseType = "ASK_LOCATION_FOR_EXPERTS"
	ResponseExpertList            ResponseType = "EXPERT_LIST"
	ResponseWeatherData           ResponseType = "WEATHER_DATA"
)

// ResponseTypes lists every valid ResponseType in schema order.
var ResponseTypes = []ResponseType{
	ResponseConversation,
	ResponseDiagnosis,
	ResponseWeatherData,
	ResponseAskLocationForExperts,
	ResponseExpertList,
}

// Valid reports whether t is one of the known response types.
func (t ResponseType) Valid() bool {
	for _, known := range ResponseTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Confidence is the model's self-reported certainty for a diagnosis.
type Confidence string

const (
	ConfidenceHigh Confidence = "HIGH"
	ConfidenceLow  Confidence = "LOW"
)

// Normalize maps anything that is not HIGH to LOW.
func (c Confidence) Normalize() Confidence {
	if strings.EqualFold(string(c), string(ConfidenceHigh)) {
		return ConfidenceHigh
	}
	return ConfidenceLow
}

// ModelEngine records which pipeline produced a diagnosis.
type ModelEngine string

const (
	EngineCustomCNN    ModelEngine = "CUSTOM_CNN_V2"
	EngineGeminiVision ModelEngine = "GEMINI_VISION"
	EngineHybrid       ModelEngine = "HYBRID_VISION_KAG_V3"
)

// ExpertType classifies an agricultural help center.
type ExpertType string

const (
	ExpertGovt    ExpertType = "GOVT"
	ExpertPrivate ExpertType = "PRIVATE"
	ExpertNGO     ExpertType = "NGO"
)

// =============================================================================
// DIAGNOSIS
// =============================================================================

// DiagnosisRecord is the structured diagnosis returned by the model and
// validated/augmented locally before it reaches storage or the UI.
type DiagnosisRecord struct {
	DiseaseName    string      `json:"disease_name"`
	Confidence     Confidence  `json:"confidence"`
	CropDetected   string      `json:"crop_detected"`
	Explanation    string      `json:"explanation"`
	TreatmentSteps []string    `json:"treatment_steps"`
	PreventionTips []string    `json:"prevention_tips"`
	IsSafeOrganic  bool        `json:"is_safe_organic"`
	ModelEngine    ModelEngine `json:"model_engine,omitempty"`
	DatasetRef     string      `json:"dataset_ref,omitempty"`
}

// Advice is the technical remediation part of a diagnosis. Crop and
// confidence always come from the live model, never from here.
type Advice struct {
	Explanation    string   `json:"explanation"`
	TreatmentSteps []string `json:"treatment_steps"`
	PreventionTips []string `json:"prevention_tips"`
	IsSafeOrganic  bool     `json:"is_safe_organic"`
}

// Clone returns a deep copy so callers cannot mutate shared tables.
func (a Advice) Clone() Advice {
	a.TreatmentSteps = append([]string(nil), a.TreatmentSteps...)
	a.PreventionTips = append([]string(nil), a.PreventionTips...)
	return a
}

// Expert is a local agricultural help center suggested by the model.
type Expert struct {
	Name    string     `json:"name"`
	Role    string     `json:"role"`
	Contact string     `json:"contact"`
	Address string     `json:"address"`
	Type    ExpertType `json:"type"`
}

// ForecastDay is one day of a weather forecast.
type ForecastDay struct {
	Day       string `json:"day"`
	Temp      string `json:"temp"`
	Condition string `json:"condition"`
}

// WeatherData is a localized forecast with farming advice.
type WeatherData struct {
	Location      string        `json:"location"`
	CurrentTemp   string        `json:"current_temp"`
	Condition     string        `json:"condition"`
	Humidity      string        `json:"humidity"`
	WindSpeed     string        `json:"wind_speed"`
	Precipitation string        `json:"precipitation"`
	Forecast      []ForecastDay `json:"forecast"`
	AgriAdvice    string        `json:"agri_advice"`
	MapURL        string        `json:"map_url,omitempty"`
}

// BotResponse is everything the assistant says back for a single turn.
type BotResponse struct {
	Type             ResponseType     `json:"type"`
	TextResponse     string           `json:"text_response"`
	DiagnosisData    *DiagnosisRecord `json:"diagnosis_data,omitempty"`
	ExpertsData      []Expert         `json:"experts_data,omitempty"`
	WeatherData      *WeatherData     `json:"weather_data,omitempty"`
	LanguageDetected string           `json:"language_detected,omitempty"`
}

// =============================================================================
// CONVERSATION
// =============================================================================

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Media is an inline binary payload (photo or voice note).
type Media struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// DataURI renders the payload as a data: URI.
func (m *Media) DataURI() string {
	if m == nil || len(m.Data) == 0 {
		return ""
	}
	mime := m.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(m.Data)
}

// ParseDataURI decodes a data: URI back into Media. Bare base64 is accepted
// and treated as image/jpeg.
func ParseDataURI(uri string) (*Media, error) {
	if uri == "" {
		return nil, nil
	}
	mime := "image/jpeg"
	payload := uri
	if strings.HasPrefix(uri, "data:") {
		header, data, ok := strings.Cut(uri, ",")
		if !ok {
			return nil, fmt.Errorf("malformed data uri")
		}
		header = strings.TrimPrefix(header, "data:")
		header = strings.TrimSuffix(header, ";base64")
		if header != "" {
			mime = header
		}
		payload = data
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	return &Media{MIMEType: mime, Data: raw}, nil
}

// MessageContent is the body of a chat message.
type MessageContent struct {
	Text        string       `json:"text,omitempty"`
	ImageURI    string       `json:"image_uri,omitempty"`
	AudioURI    string       `json:"audio_uri,omitempty"`
	BotResponse *BotResponse `json:"bot_response,omitempty"`
}

// ChatMessage is one entry of a conversation.
type ChatMessage struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   MessageContent `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
}

// FarmerReport is a persisted diagnosis report.
type FarmerReport struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Crop      string          `json:"crop"`
	Symptoms  string          `json:"symptoms"`
	Diagnosis DiagnosisRecord `json:"diagnosis"`
	ImageURI  string          `json:"image_uri,omitempty"`
}

// User is a registered farmer.
type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	LastActive time.Time `json:"last_active"`
}
