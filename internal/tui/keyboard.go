package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg routes a key press to the active modal or view
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmLogout:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			return m, LogoutCmd(m.session)
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
		}
		return m, nil

	case StateSettings:
		return m.handleSettingsKey(msg)

	case StateSearchPrompt:
		return m.handleSearchPromptKey(msg)
	}

	// Typing into a list filter swallows every key
	if list := m.activeList(); m.route.Kind != ViewRecipe && list.IsFilterTyping() {
		var cmd tea.Cmd
		*list, cmd = list.Update(msg)
		m.updatePreview()
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil
	case key.Matches(msg, Keys.Settings):
		m.openSettings()
		return m, nil
	case key.Matches(msg, Keys.Search):
		m.SearchPrompt.Show("Search recipes")
		m.State = StateSearchPrompt
		return m, nil
	case key.Matches(msg, Keys.Reconnect):
		m.Loading = true
		return m, tea.Batch(ReconnectCmd(m.session), m.startTick())
	case key.Matches(msg, Keys.Logout):
		m.State = StateConfirmLogout
		return m, nil
	}

	switch m.route.Kind {
	case ViewRecipe:
		return m.handleRecipeKey(msg)
	case ViewSearch:
		return m.handleSearchKey(msg)
	default:
		return m.handleHomeKey(msg)
	}
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.NextPage):
		if m.session.NextPage() {
			m.syncPage()
		}
		return m, nil
	case key.Matches(msg, Keys.PrevPage):
		if m.session.PreviousPage() {
			m.syncPage()
		}
		return m, nil
	case key.Matches(msg, Keys.Refresh):
		m.Loading = true
		return m, tea.Batch(RefreshCmd(m.session), m.startTick())
	case key.Matches(msg, Keys.Filter):
		m.List.StartFilter()
		return m, nil
	case key.Matches(msg, Keys.Enter):
		if r, ok := m.List.Selected(); ok {
			return m, m.openRecipe(r)
		}
		return m, nil
	case key.Matches(msg, Keys.Back):
		if m.List.IsFiltering() {
			m.List.ClearFilter()
			m.updatePreview()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	m.updatePreview()
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Filter):
		m.Results.StartFilter()
		return m, nil
	case key.Matches(msg, Keys.Enter):
		if r, ok := m.Results.Selected(); ok {
			return m, m.openRecipe(r)
		}
		return m, nil
	case key.Matches(msg, Keys.Back):
		if m.Results.IsFiltering() {
			m.Results.ClearFilter()
			m.updatePreview()
			return m, nil
		}
		m.Searching = false
		m.popRoute()
		return m, nil
	}

	var cmd tea.Cmd
	m.Results, cmd = m.Results.Update(msg)
	m.updatePreview()
	return m, cmd
}

func (m Model) handleRecipeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.Back) || key.Matches(msg, Keys.PrevPage) {
		m.popRoute()
		return m, nil
	}

	var cmd tea.Cmd
	m.Recipe, cmd = m.Recipe.Update(msg)
	return m, cmd
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.Settings, cmd, submitted = m.Settings.Update(msg)

	if !m.Settings.IsVisible() {
		m.State = StateBrowsing
		return m, cmd
	}
	if !submitted {
		return m, cmd
	}

	baseURL, token := m.Settings.Values()
	if baseURL == "" || token == "" {
		m.Settings.SetError("API URL and token are both required")
		return m, nil
	}

	m.Settings.Hide()
	m.State = StateBrowsing
	m.Loading = true
	m.StatusMsg = "Connecting..."
	m.StatusIsErr = false
	return m, tea.Batch(SaveSettingsCmd(m.session, baseURL, token), m.startTick())
}

func (m Model) handleSearchPromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var submitted bool
	m.SearchPrompt, cmd, submitted = m.SearchPrompt.Update(msg)

	if !m.SearchPrompt.IsVisible() {
		m.State = StateBrowsing
		return m, cmd
	}
	if !submitted {
		return m, cmd
	}

	query := m.SearchPrompt.Value()
	m.SearchPrompt.Hide()
	m.State = StateBrowsing
	if query == "" {
		return m, nil
	}
	return m, m.openSearch(query)
}
