package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/tui/styles"
)

const settingsWidth = 52

// SettingsModal edits the API URL and token
type SettingsModal struct {
	visible bool
	inputs  [2]textinput.Model
	focus   int
	err     string
}

// NewSettingsModal creates the settings dialog
func NewSettingsModal() SettingsModal {
	newInput := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 512
		ti.Width = settingsWidth - 8
		ti.Prompt = ""
		ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
		ti.PlaceholderStyle = styles.DimStyle
		return ti
	}

	url := newInput("https://cloud.example.com/apps/cookbook")
	token := newInput("base64(user:app-password)")
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'

	return SettingsModal{inputs: [2]textinput.Model{url, token}}
}

// Show opens the dialog prefilled with the current pair
func (m *SettingsModal) Show(baseURL, token string) {
	m.visible = true
	m.err = ""
	m.inputs[0].SetValue(baseURL)
	m.inputs[1].SetValue(token)
	m.setFocus(0)
}

// Hide dismisses the dialog
func (m *SettingsModal) Hide() {
	m.visible = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// IsVisible returns whether the dialog is shown
func (m SettingsModal) IsVisible() bool {
	return m.visible
}

// Values returns the trimmed URL and token
func (m SettingsModal) Values() (string, string) {
	return strings.TrimRight(strings.TrimSpace(m.inputs[0].Value()), "/"), strings.TrimSpace(m.inputs[1].Value())
}

// SetError shows a message under the inputs
func (m *SettingsModal) SetError(msg string) {
	m.err = msg
}

func (m *SettingsModal) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// Update handles input events, returns (modal, cmd, submitted). Enter on
// the URL moves to the token; enter on the token submits.
func (m SettingsModal) Update(msg tea.Msg) (SettingsModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.Hide()
			return m, nil, false
		case "tab", "shift+tab", "up", "down":
			m.setFocus(1 - m.focus)
			return m, nil, false
		case "enter":
			if m.focus == 0 {
				m.setFocus(1)
				return m, nil, false
			}
			return m, nil, true
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd, false
}

// View renders the dialog
func (m SettingsModal) View() string {
	if !m.visible {
		return ""
	}

	label := func(i int, text string) string {
		if i == m.focus {
			return styles.AccentStyle.Render(text)
		}
		return styles.DimStyle.Render(text)
	}

	rows := []string{
		label(0, "API URL"),
		m.inputs[0].View(),
		"",
		label(1, "API token"),
		m.inputs[1].View(),
		"",
		styles.DimStyle.Render("tab switch · enter save · esc cancel"),
	}
	if m.err != "" {
		rows = append(rows, "", styles.ErrorStyle.Render(m.err))
	}
	return renderModal(settingsWidth, "Settings", rows...)
}
