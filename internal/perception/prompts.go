package perception

import (
	"fmt"
	"strings"

	"kisandoctor/internal/types"
)

// SystemInstruction frames the model as a plant pathologist.
const SystemInstruction = `You are "Kisan Plant Doctor," a universal agricultural AI expert and advanced plant pathologist.
Your capability is NOT limited to specific crops. You must identify and diagnose ANY plant, crop, flower, herb, or tree provided in the image.

CORE PROTOCOL:
1. IDENTIFY PLANT: Accurately determine the plant species from the image (e.g., Wheat, Tomato, Rose, Mango, Paddy, etc.).
2. DETECT CONDITION: Analyze for diseases (fungal, bacterial, viral), pests, nutrient deficiencies, or physical damage.
3. IF HEALTHY: Confirm the plant is healthy and provide general care tips for that specific species.
4. IF NOT PLANT: If the image is clearly not a plant (e.g., a car, person, building), set the 'disease_name' to "Not a Plant" and explain politely.

RESPONSE GUIDELINES:
- Output MUST be valid JSON matching the provided schema.
- Translate ALL output text (explanation, treatment, prevention) into the user's requested language.
- Provide professional, agricultural-grade advice.
- For "disease_name", use the common English name of the condition (e.g., "Rose Black Spot", "Tomato Early Blight", "Wheat Rust").
- Ensure "treatment_steps" includes chemical and organic options where applicable.`

const imageProbe = "[Image Probe]"

const diagnosisProtocol = `[DIAGNOSIS PROTOCOL]:
1. Identify the exact plant species and analyze strictly for any pathologies (disease, pests, deficiency).
2. If the plant is healthy, state "Healthy [Plant Name]".
3. Translate ALL fields (disease_name, explanation, treatment_steps, prevention_tips) into %[1]s.
4. MANDATORY: You MUST provide at least 2 practical prevention_tips for the farmer. DO NOT leave the prevention_tips array empty.`

const conversationProtocol = `[CONVERSATION PROTOCOL]:
- If user asks for local help/experts/centers AND hasn't specified a city/location, you MUST return type: "ASK_LOCATION_FOR_EXPERTS" and ask them where they are located in %[1]s.
- If user provides a location, return type: "EXPERT_LIST" with realistic centers in that area.
- Otherwise, respond politely in %[1]s.`

// BuildPrompt assembles the user prompt for one consultation.
func BuildPrompt(req types.ConsultRequest) string {
	language := types.LanguageName(req.Language)
	input := req.Text
	if strings.TrimSpace(input) == "" {
		input = imageProbe
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "System Mode: Expert Consultant.\nLanguage: %s.\nFarmer Input: %s", language, input)

	if ctx := renderHistory(req.History); ctx != "" {
		sb.WriteString("\n\n[RECENT CONVERSATION]:\n")
		sb.WriteString(ctx)
	}

	sb.WriteString("\n\n")
	if req.Mode == types.ModeDiagnosis {
		fmt.Fprintf(&sb, diagnosisProtocol, language)
	} else {
		fmt.Fprintf(&sb, conversationProtocol, language)
	}
	return sb.String()
}

// renderHistory flattens prior turns into a short transcript.
func renderHistory(history []types.ChatMessage) string {
	var lines []string
	for _, m := range history {
		text := strings.TrimSpace(m.Content.Text)
		if m.Role == types.RoleModel && m.Content.BotResponse != nil {
			text = strings.TrimSpace(m.Content.BotResponse.TextResponse)
			if d := m.Content.BotResponse.DiagnosisData; d != nil && d.DiseaseName != "" {
				text = strings.TrimSpace(fmt.Sprintf("%s (diagnosis: %s on %s)", text, d.DiseaseName, d.CropDetected))
			}
		}
		if text == "" {
			if m.Content.ImageURI != "" {
				text = imageProbe
			} else {
				continue
			}
		}
		speaker := "Farmer"
		if m.Role == types.RoleModel {
			speaker = "Kisan"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", speaker, text))
	}
	return strings.Join(lines, "\n")
}
