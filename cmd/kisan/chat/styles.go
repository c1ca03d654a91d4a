package chat

import "github.com/charmbracelet/lipgloss"

// Field palette.
var (
	LeafGreen  = lipgloss.Color("#2E7D32")
	SproutLime = lipgloss.Color("#8BC34A")
	SoilBrown  = lipgloss.Color("#6D4C41")
	HarvestSun = lipgloss.Color("#FFC107")
	AlertRed   = lipgloss.Color("#E53935")
	MutedGrey  = lipgloss.Color("#9E9E9E")
)

// Styles holds the lipgloss styles used by the chat view.
type Styles struct {
	Header    lipgloss.Style
	Farmer    lipgloss.Style
	Doctor    lipgloss.Style
	Notice    lipgloss.Style
	Error     lipgloss.Style
	Footer    lipgloss.Style
	Attached  lipgloss.Style
	InputCard lipgloss.Style
}

// DefaultStyles returns the chat styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(LeafGreen).
			Padding(0, 1),
		Farmer: lipgloss.NewStyle().
			Bold(true).
			Foreground(SoilBrown).
			MarginTop(1),
		Doctor: lipgloss.NewStyle().
			Bold(true).
			Foreground(SproutLime).
			MarginTop(1),
		Notice:   lipgloss.NewStyle().Foreground(MutedGrey).Italic(true),
		Error:    lipgloss.NewStyle().Foreground(AlertRed).Bold(true),
		Footer:   lipgloss.NewStyle().Foreground(MutedGrey),
		Attached: lipgloss.NewStyle().Foreground(HarvestSun),
		InputCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(LeafGreen).
			Padding(0, 1),
	}
}
