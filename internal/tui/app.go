package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/ladle/internal/detail"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
	"github.com/mmcdole/ladle/internal/service"
	"github.com/mmcdole/ladle/internal/tui/components"
)

// ApplicationState represents the current input mode
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateSettings
	StateSearchPrompt
	StateHelp
	StateConfirmLogout
)

// Layout proportions
const (
	ListColumnPercent = 45
	MinColumnWidth    = 24

	// Header line plus footer line
	ChromeHeight = 2
)

const (
	tickInterval  = 100 * time.Millisecond
	statusTimeout = 3 * time.Second
	eventBuffer   = 256
)

// Options configures the UI
type Options struct {
	Images       bool   // Fetch and render recipe pictures
	GlamourStyle string // Markdown style for the recipe view
	Logger       *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	// Services
	session  *service.Session
	registry *imagecache.Registry
	images   *imagecache.Cache // home view thumbnails; nil when images are off
	detail   *detail.Fetcher   // only while a recipe view is open

	// placeholder is the list thumbnail shown until the full picture
	// arrives. The recipe view holds its own reference to it.
	placeholder imagecache.Handle
	events   chan tea.Msg
	opts     Options
	logger   *slog.Logger

	// Navigation
	route   Route
	history []Route

	// UI Components
	Header       components.Header
	List         components.RecipeList
	Results      components.RecipeList
	Preview      components.Preview
	Recipe       components.RecipeView
	Settings     components.SettingsModal
	SearchPrompt components.InputModal
	thumbs       *components.ThumbnailCache

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	Loading      bool
	Searching    bool
	SpinnerFrame int
	ticking      bool
	started      bool
}

// NewModel creates the root model around a session. The model owns the
// home view's image cache and the recipe view's detail fetcher; Shutdown
// releases both.
func NewModel(session *service.Session, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	events := make(chan tea.Msg, eventBuffer)
	registry := imagecache.NewRegistry()
	thumbs := components.NewThumbnailCache(registry)

	m := Model{
		State:        StateBrowsing,
		session:      session,
		registry:     registry,
		events:       events,
		opts:         opts,
		logger:       logger,
		route:        Route{Kind: ViewHome},
		Header:       components.NewHeader("Ladle"),
		List:         components.NewRecipeList(),
		Results:      components.NewRecipeList(),
		Preview:      components.NewPreview(thumbs),
		Recipe:       components.NewRecipeView(opts.GlamourStyle, thumbs),
		Settings:     components.NewSettingsModal(),
		SearchPrompt: components.NewInputModal("Search recipes..."),
		thumbs:       thumbs,
		Loading:      true,
		ticking:      true,
	}

	session.Subscribe(NewChannelObserver(events, ImageSourceList))

	if opts.Images {
		cache := imagecache.New(session.Source(), registry, domain.ImageSizeThumb, session.Timeout(), logger)
		cache.Subscribe(NewChannelObserver(events, ImageSourceList))
		session.AttachImages(cache)
		m.images = cache

		hasImage := func(id string) bool {
			_, ok := cache.Handle(id)
			return ok
		}
		m.List.SetImageLookup(hasImage)
		m.Results.SetImageLookup(hasImage)
	}

	m.List.SetBreadcrumb("All Recipes")
	m.List.SetFocused(true)
	m.Results.SetFocused(true)
	m.Results.SetEmptyText("No recipes found")
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		StartCmd(m.session),
		ListenCmd(m.events),
		TickCmd(tickInterval),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.Recipe.SetSpinnerFrame(m.SpinnerFrame)
		if m.busy() {
			return m, TickCmd(tickInterval)
		}
		m.ticking = false
		return m, nil

	case ConnectionStatusMsg:
		m.Header.SetStatus(msg.Status, msg.Version)
		m.Recipe.SetConfigured(m.session.Credential().Configured())
		return m, ListenCmd(m.events)

	case RecipesLoadedMsg:
		if msg.Err != nil {
			m.logger.Error("failed to fetch recipes", "error", msg.Err)
			return m, tea.Batch(ListenCmd(m.events), m.setStatus(domain.UserMessage(msg.Err), true))
		}
		m.thumbs.Prune()
		m.syncPage()
		return m, ListenCmd(m.events)

	case RefreshDoneMsg:
		m.Loading = false
		return m, nil

	case ImageReadyMsg:
		m.handleImage(msg)
		return m, ListenCmd(m.events)

	case ProbeDoneMsg:
		m.Loading = false
		first := !m.started
		m.started = true
		return m, m.handleProbe(msg, first)

	case SettingsSavedMsg:
		m.Loading = false
		if msg.Err != nil {
			m.logger.Error("failed to save settings", "error", msg.Err)
			return m, m.setStatus("Failed to save settings", true)
		}
		m.Recipe.SetConfigured(m.session.Credential().Configured())
		return m, m.setStatus("Settings saved successfully", false)

	case LoggedOutMsg:
		if msg.Err != nil {
			return m, m.setStatus("Failed to log out", true)
		}
		m.resetToHome()
		if m.images != nil {
			m.images.ReleaseAll()
		}
		m.thumbs.Prune()
		m.List.SetRecipes(nil)
		m.List.SetPager("")
		m.updatePreview()
		return m, m.setStatus("Logged out", false)

	case DetailLoadedMsg:
		if errors.Is(msg.Result.Err, domain.ErrSuperseded) || m.detail == nil ||
			m.route.Kind != ViewRecipe || msg.Result.ID != m.route.ID {
			return m, nil
		}
		m.Recipe.SetResult(msg.Result)
		if h, ok := m.detail.Image(); ok {
			m.Recipe.SetImage(h)
			m.dropPlaceholder()
		} else if !m.placeholder.IsZero() {
			m.Recipe.SetImage(m.placeholder)
		}
		return m, nil

	case SearchResultsMsg:
		if m.route.Kind != ViewSearch || msg.Query != m.route.Query {
			return m, nil
		}
		m.Searching = false
		return m, m.showSearchResults(msg)

	case StatusMsg:
		return m, m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil

	case ErrMsg:
		m.Loading = false
		m.logger.Error("command failed", "error", msg.Err, "context", msg.Context)
		return m, m.setStatus(msg.Error(), true)
	}

	return m, nil
}

// Shutdown releases everything the model owns. Call it once the program
// has exited.
func (m Model) Shutdown() {
	if m.detail != nil {
		m.detail.Close()
	}
	if !m.placeholder.IsZero() {
		m.registry.Revoke(m.placeholder)
	}
	if m.images != nil {
		m.session.DetachImages()
		m.images.Close()
	}
}

// handleProbe reports a finished probe. The first probe of an unconfigured
// client opens the settings dialog.
func (m *Model) handleProbe(msg ProbeDoneMsg, first bool) tea.Cmd {
	switch msg.Result.Status {
	case domain.StatusError:
		m.logger.Warn("connection failed", "error", msg.Result.Err)
		return m.setStatus("Could not connect to the cookbook server", true)
	case domain.StatusDisconnected:
		if first {
			m.openSettings()
		}
		return nil
	default:
		return nil
	}
}

func (m *Model) handleImage(msg ImageReadyMsg) {
	if msg.Source == ImageSourceDetail {
		if m.detail == nil || m.route.Kind != ViewRecipe || msg.RecipeID != m.route.ID {
			return
		}
		if h, ok := m.detail.Image(); ok && h.URL == msg.HandleURL {
			m.Recipe.SetImage(h)
			m.dropPlaceholder()
		}
		return
	}
	m.updatePreview()
}

// syncPage shows the directory's current page
func (m *Model) syncPage() {
	dir := m.session.Directory()
	m.List.SetRecipes(dir.Current())
	m.List.SetPager(fmt.Sprintf("Page %d of %d · %d recipes", dir.Cursor(), dir.TotalPages(), dir.Len()))
	m.updatePreview()
}

// showSearchResults fills the search view and resolves result pictures
func (m *Model) showSearchResults(msg SearchResultsMsg) tea.Cmd {
	m.Results.SetRecipes(msg.Results)
	m.Results.SetPager(fmt.Sprintf("%d results", len(msg.Results)))

	switch {
	case msg.Err != nil:
		m.Results.SetEmptyText(domain.UserMessage(msg.Err))
	case len(msg.Suggestions) > 0:
		m.Results.SetEmptyText(fmt.Sprintf("No recipes found. Did you mean: %s?", joinQuoted(msg.Suggestions)))
	default:
		m.Results.SetEmptyText("No recipes found")
	}
	m.updatePreview()

	var cmds []tea.Cmd
	if msg.Err != nil {
		cmds = append(cmds, m.setStatus(domain.UserMessage(msg.Err), true))
	}
	if m.images != nil && len(msg.Results) > 0 {
		cmds = append(cmds, ResolveImagesCmd(m.images, msg.Results, m.session.Timeout()))
	}
	return tea.Batch(cmds...)
}

// updatePreview points the preview at the selected recipe
func (m *Model) updatePreview() {
	list := m.activeList()
	r, ok := list.Selected()
	if !ok {
		m.Preview.SetRecipe(nil, imagecache.Handle{})
		return
	}

	var h imagecache.Handle
	if m.images != nil {
		h, _ = m.images.Handle(r.ID)
	}
	m.Preview.SetRecipe(&r, h)
}

// activeList is the list shown in the current view
func (m *Model) activeList() *components.RecipeList {
	if m.route.Kind == ViewSearch {
		return &m.Results
	}
	return &m.List
}

// setStatus shows a toast that clears itself
func (m *Model) setStatus(text string, isErr bool) tea.Cmd {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return ClearStatusCmd(statusTimeout)
}

// busy reports whether a spinner is visible
func (m *Model) busy() bool {
	return m.Loading || m.Searching || m.Recipe.Result().State == detail.StateLoading
}

// startTick restarts the spinner tick if it stopped
func (m *Model) startTick() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return TickCmd(tickInterval)
}

func (m *Model) openSettings() {
	cred := m.session.Credential()
	m.Settings.Show(cred.BaseURL, cred.Token)
	m.State = StateSettings
}

func (m *Model) updateLayout() {
	contentHeight := m.Height - ChromeHeight
	m.Header.SetWidth(m.Width)

	listWidth := max(m.Width*ListColumnPercent/100, MinColumnWidth)
	previewWidth := max(m.Width-listWidth, 0)

	m.List.SetSize(listWidth, contentHeight)
	m.Results.SetSize(listWidth, contentHeight)
	m.Preview.SetSize(previewWidth, contentHeight)
	m.Recipe.SetSize(m.Width, contentHeight)
}
