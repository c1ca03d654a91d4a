// Package chat provides the interactive terminal chat for Kisan Plant Doctor.
// It is presentation only: every turn goes through session.Conversation.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"kisandoctor/internal/types"
)

const (
	headerHeight = 1
	footerHeight = 1
	inputHeight  = 5
)

// Sender is the conversation the view drives.
type Sender interface {
	Send(ctx context.Context, text string, image, audio *types.Media) (*types.BotResponse, error)
	Messages() []types.ChatMessage
	Language() string
	SetLanguage(language string)
}

// WeatherFunc fetches a forecast for a place.
type WeatherFunc func(ctx context.Context, place, language string) types.WeatherData

// Config holds what the chat view needs.
type Config struct {
	Conversation Sender
	Weather      WeatherFunc
	// UserName is shown in the header; empty means guest.
	UserName string
	// ReadFile loads /image attachments. Defaults to os.ReadFile.
	ReadFile func(path string) ([]byte, error)
	// Context is passed to every turn. Defaults to context.Background().
	Context context.Context
}

type role int

const (
	roleFarmer role = iota
	roleDoctor
	roleNotice
)

type entry struct {
	role    role
	content string
}

// responseMsg carries a finished turn back to Update.
type responseMsg struct {
	resp *types.BotResponse
	err  error
}

// weatherMsg carries a finished forecast back to Update.
type weatherMsg struct {
	data types.WeatherData
}

// Model is the bubbletea model for the chat.
type Model struct {
	cfg      Config
	styles   Styles
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	entries      []entry
	pendingImage *types.Media
	pendingName  string

	loading bool
	ready   bool
	width   int
	height  int
}

// New creates the chat model and replays the stored transcript.
func New(cfg Config) Model {
	if cfg.ReadFile == nil {
		cfg.ReadFile = os.ReadFile
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = "Describe the problem, or /image <path> to attach a leaf photo..."
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		cfg:      cfg,
		styles:   DefaultStyles(),
		textarea: ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
	m.entries = replay(cfg.Conversation.Messages())
	return m
}

func replay(messages []types.ChatMessage) []entry {
	out := make([]entry, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case types.RoleUser:
			text := msg.Content.Text
			if msg.Content.ImageURI != "" {
				text = strings.TrimSpace(text + " 📷")
			}
			if msg.Content.AudioURI != "" {
				text = strings.TrimSpace(text + " 🎤")
			}
			out = append(out, entry{role: roleFarmer, content: text})
		default:
			out = append(out, entry{role: roleDoctor, content: FormatResponse(msg.Content.BotResponse)})
		}
	}
	return out
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight-inputHeight, 3)
		m.textarea.SetWidth(max(msg.Width-4, 10))
		m.renderer = NewRenderer(msg.Width - 4)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			return m.submit(input)
		}

	case responseMsg:
		m.loading = false
		if msg.err != nil {
			m.notice(fmt.Sprintf("Could not send: %v", msg.err))
		} else {
			m.entries = append(m.entries, entry{role: roleDoctor, content: FormatResponse(msg.resp)})
		}
		m.refresh()
		return m, nil

	case weatherMsg:
		m.loading = false
		m.entries = append(m.entries, entry{role: roleDoctor, content: FormatWeather(msg.data)})
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit handles one line of input: a slash command or a chat turn.
func (m Model) submit(input string) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(input, "/") {
		return m.command(input)
	}
	if input == "" && m.pendingImage == nil {
		return m, nil
	}

	image := m.pendingImage
	label := input
	if image != nil {
		label = strings.TrimSpace(label + " 📷 " + m.pendingName)
	}
	m.entries = append(m.entries, entry{role: roleFarmer, content: label})
	m.pendingImage, m.pendingName = nil, ""
	m.loading = true
	m.refresh()

	conv, ctx := m.cfg.Conversation, m.cfg.Context
	return m, func() tea.Msg {
		resp, err := conv.Send(ctx, input, image, nil)
		return responseMsg{resp: resp, err: err}
	}
}

func (m Model) command(input string) (tea.Model, tea.Cmd) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/image":
		if arg == "" {
			m.notice("Usage: /image <path>")
			break
		}
		media, err := LoadMedia(m.cfg.ReadFile, arg)
		if err != nil {
			m.notice(fmt.Sprintf("Could not attach %s: %v", arg, err))
			break
		}
		m.pendingImage, m.pendingName = media, filepath.Base(arg)
		m.notice(fmt.Sprintf("Attached %s. Press Enter to send, or add a description.", m.pendingName))

	case "/lang":
		if arg == "" {
			m.notice("Current language: " + types.LanguageName(m.cfg.Conversation.Language()))
			break
		}
		m.cfg.Conversation.SetLanguage(arg)
		m.notice("Replies will be in " + types.LanguageName(arg) + ".")

	case "/weather":
		if m.cfg.Weather == nil {
			m.notice("Weather is not available.")
			break
		}
		if arg == "" {
			m.notice("Usage: /weather <village or district>")
			break
		}
		m.loading = true
		weather, ctx, lang := m.cfg.Weather, m.cfg.Context, m.cfg.Conversation.Language()
		m.refresh()
		return m, func() tea.Msg {
			return weatherMsg{data: weather(ctx, arg, lang)}
		}

	case "/help":
		m.notice("/image <path> · /lang <code> · /weather <place> · /quit")

	default:
		m.notice("Unknown command " + name + ". Try /help.")
	}
	m.refresh()
	return m, nil
}

func (m *Model) notice(text string) {
	m.entries = append(m.entries, entry{role: roleNotice, content: text})
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// LoadMedia reads a photo or voice note from disk and sniffs its MIME type.
func LoadMedia(readFile func(string) ([]byte, error), path string) (*types.Media, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return &types.Media{MIMEType: http.DetectContentType(data), Data: data}, nil
}
