package perception

import (
	"google.golang.org/genai"

	"kisandoctor/internal/types"
)

func stringSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeString}
}

func enumSchema(values ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Enum: values}
}

func stringArraySchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Items:       stringSchema(),
		Description: description,
	}
}

// ResponseSchema is the structured-output contract for chat turns.
func ResponseSchema() *genai.Schema {
	typeNames := make([]string, len(types.ResponseTypes))
	for i, t := range types.ResponseTypes {
		typeNames[i] = string(t)
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type":          enumSchema(typeNames...),
			"text_response": stringSchema(),
			"diagnosis_data": {
				Type:     genai.TypeObject,
				Nullable: genai.Ptr(true),
				Properties: map[string]*genai.Schema{
					"disease_name":    stringSchema(),
					"confidence":      enumSchema(string(types.ConfidenceHigh), string(types.ConfidenceLow)),
					"crop_detected":   stringSchema(),
					"explanation":     stringSchema(),
					"treatment_steps": stringArraySchema("Must contain at least 3 distinct steps."),
					"prevention_tips": stringArraySchema("Must contain at least 2 long-term prevention strategies. Cannot be empty."),
				},
				Required: []string{"disease_name", "confidence", "crop_detected", "explanation", "treatment_steps", "prevention_tips"},
			},
			"experts_data": {
				Type:     genai.TypeArray,
				Nullable: genai.Ptr(true),
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":    stringSchema(),
						"role":    stringSchema(),
						"contact": stringSchema(),
						"address": stringSchema(),
						"type":    enumSchema(string(types.ExpertGovt), string(types.ExpertPrivate), string(types.ExpertNGO)),
					},
					Required: []string{"name", "role", "contact", "address", "type"},
				},
			},
		},
		Required: []string{"type", "text_response"},
	}
}

// WeatherSchema is the structured-output contract for forecasts.
func WeatherSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"location":      stringSchema(),
			"current_temp":  stringSchema(),
			"condition":     stringSchema(),
			"humidity":      stringSchema(),
			"wind_speed":    stringSchema(),
			"precipitation": stringSchema(),
			"forecast": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"day":       stringSchema(),
						"temp":      stringSchema(),
						"condition": stringSchema(),
					},
					Required: []string{"day", "temp", "condition"},
				},
			},
			"agri_advice": stringSchema(),
		},
		Required: []string{"location", "current_temp", "condition", "humidity", "wind_speed", "precipitation", "forecast", "agri_advice"},
	}
}
