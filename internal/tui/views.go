package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/ladle/internal/tui/components"
	"github.com/mmcdole/ladle/internal/tui/styles"
)

// View renders the whole screen
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}
	if m.State == StateConfirmLogout {
		return m.renderLogoutConfirmation()
	}

	contentHeight := m.Height - ChromeHeight

	var content string
	switch {
	case m.State == StateSettings:
		content = lipgloss.Place(m.Width, contentHeight, lipgloss.Center, lipgloss.Center, m.Settings.View())
	case m.State == StateSearchPrompt:
		content = lipgloss.Place(m.Width, contentHeight, lipgloss.Center, lipgloss.Center, m.SearchPrompt.View())
	case m.route.Kind == ViewRecipe:
		content = m.Recipe.View()
	case m.route.Kind == ViewSearch:
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.Results.View(), m.Preview.View())
	default:
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.List.View(), m.Preview.View())
	}

	content = lipgloss.NewStyle().Height(contentHeight).MaxHeight(contentHeight).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, m.Header.View(), content, m.renderFooter())
}

// renderFooter renders status on the left and key hints on the right
func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading:
		left = components.RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Loading...")
	case m.Searching:
		left = components.RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Searching...")
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.SuccessStyle.Render(m.StatusMsg)
	}

	var hints []string
	switch m.route.Kind {
	case ViewHome:
		hints = append(hints, hint("←/→", "page"), hint("/", "filter"))
	case ViewRecipe:
		hints = append(hints, hint("esc", "back"))
	case ViewSearch:
		hints = append(hints, hint("esc", "back"), hint("/", "filter"))
	}
	hints = append(hints, hint("s", "search"), hint("?", "help"))
	right := strings.Join(hints, "  ")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func hint(k, desc string) string {
	return styles.HelpKeyStyle.Render(k) + styles.HelpDescStyle.Render(" "+desc)
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
NAVIGATION                      ACTIONS
  j/k        Up/down               s      Search server
  h/l ←/→    Previous/next page    /      Filter this page
  g/G        First/last recipe     r      Reconnect
  Enter      Open recipe           R      Reload recipes
  Esc        Back                  ,      Settings
                                   L      Logout
                                   q      Quit

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderLogoutConfirmation renders the logout confirmation modal
func (m Model) renderLogoutConfirmation() string {
	modal := `
              Log Out?

  This will clear the stored API URL
  and token.

        [Y] Yes      [N] No
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}

// joinQuoted renders names as "a", "b"
func joinQuoted(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = `"` + n + `"`
	}
	return strings.Join(quoted, ", ")
}
