package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"kisandoctor/internal/types"
)

// =============================================================================
// MARKDOWN FORMATTING
// =============================================================================
// Bot responses are formatted as markdown first and rendered with glamour, so
// the one-shot commands and the TUI print the same thing.

// FormatResponse renders a bot response as markdown.
func FormatResponse(resp *types.BotResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	if text := strings.TrimSpace(resp.TextResponse); text != "" {
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	if resp.DiagnosisData != nil {
		sb.WriteString("\n")
		sb.WriteString(FormatDiagnosis(*resp.DiagnosisData))
	}
	if len(resp.ExpertsData) > 0 {
		sb.WriteString("\n### Nearby help\n\n")
		for _, e := range resp.ExpertsData {
			fmt.Fprintf(&sb, "- **%s** (%s, %s)  \n  %s · %s\n", e.Name, e.Role, e.Type, e.Contact, e.Address)
		}
	}
	if resp.WeatherData != nil {
		sb.WriteString("\n")
		sb.WriteString(FormatWeather(*resp.WeatherData))
	}
	return sb.String()
}

// FormatDiagnosis renders a diagnosis card.
func FormatDiagnosis(d types.DiagnosisRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", d.DiseaseName)
	fmt.Fprintf(&sb, "**Crop:** %s · **Confidence:** %s", d.CropDetected, d.Confidence)
	if d.IsSafeOrganic {
		sb.WriteString(" · 🌿 Organic")
	}
	sb.WriteString("\n\n")
	if d.Explanation != "" {
		sb.WriteString(d.Explanation)
		sb.WriteString("\n\n")
	}
	writeList(&sb, "Treatment", d.TreatmentSteps, true)
	writeList(&sb, "Prevention", d.PreventionTips, false)
	if d.ModelEngine != "" || d.DatasetRef != "" {
		fmt.Fprintf(&sb, "_Source: %s / %s_\n", d.ModelEngine, d.DatasetRef)
	}
	return sb.String()
}

// FormatReport renders a stored report for the reports listing.
func FormatReport(r types.FarmerReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s · %s\n\n", r.Crop, r.Timestamp)
	fmt.Fprintf(&sb, "**Symptoms:** %s\n\n", r.Symptoms)
	sb.WriteString(FormatDiagnosis(r.Diagnosis))
	return sb.String()
}

// FormatWeather renders a forecast card.
func FormatWeather(w types.WeatherData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Weather: %s\n\n", w.Location)
	fmt.Fprintf(&sb, "**%s**, %s\n\n", w.CurrentTemp, w.Condition)
	fmt.Fprintf(&sb, "| Humidity | Wind | Rain |\n|---|---|---|\n| %s | %s | %s |\n\n", w.Humidity, w.WindSpeed, w.Precipitation)
	if len(w.Forecast) > 0 {
		sb.WriteString("| Day | Temp | Condition |\n|---|---|---|\n")
		for _, f := range w.Forecast {
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", f.Day, f.Temp, f.Condition)
		}
		sb.WriteString("\n")
	}
	if w.AgriAdvice != "" {
		fmt.Fprintf(&sb, "> %s\n\n", w.AgriAdvice)
	}
	if w.MapURL != "" {
		fmt.Fprintf(&sb, "[Open map](%s)\n", w.MapURL)
	}
	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string, numbered bool) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "### %s\n\n", title)
	for i, item := range items {
		if numbered {
			fmt.Fprintf(sb, "%d. %s\n", i+1, item)
		} else {
			fmt.Fprintf(sb, "- %s\n", item)
		}
	}
	sb.WriteString("\n")
}

// NewRenderer builds a glamour renderer wrapped at width. A nil renderer is
// returned when glamour cannot be set up; RenderMarkdown then prints raw text.
func NewRenderer(width int) *glamour.TermRenderer {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// RenderMarkdown renders content with r, falling back to the raw markdown.
func RenderMarkdown(r *glamour.TermRenderer, content string) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			result = content
		}
	}()
	if r == nil || content == "" {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
