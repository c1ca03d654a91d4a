package chat

import (
	"strings"

	"kisandoctor/internal/types"
)

func (m Model) renderHistory() string {
	var sb strings.Builder
	for _, e := range m.entries {
		switch e.role {
		case roleFarmer:
			sb.WriteString(m.styles.Farmer.Render("You") + "\n")
			sb.WriteString(e.content + "\n")
		case roleDoctor:
			sb.WriteString(m.styles.Doctor.Render("Kisan") + "\n")
			sb.WriteString(RenderMarkdown(m.renderer, e.content))
			sb.WriteString("\n")
		case roleNotice:
			sb.WriteString(m.styles.Notice.Render(e.content) + "\n")
		}
	}
	if m.loading {
		sb.WriteString("\n" + m.spinner.View() + " Kisan is looking...\n")
	}
	return sb.String()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return strings.Join([]string{
		m.renderHeader(),
		m.viewport.View(),
		m.styles.InputCard.Render(m.textarea.View()),
		m.renderFooter(),
	}, "\n")
}

func (m Model) renderHeader() string {
	user := m.cfg.UserName
	if user == "" {
		user = "guest"
	}
	title := "🌱 Kisan Plant Doctor · " + user + " · " + types.LanguageName(m.cfg.Conversation.Language())
	return m.styles.Header.Width(m.width).Render(title)
}

func (m Model) renderFooter() string {
	status := "Enter to send · /help · Esc to quit"
	if m.pendingImage != nil {
		status = m.styles.Attached.Render("📷 "+m.pendingName) + " · " + status
	}
	return m.styles.Footer.Render(status)
}
