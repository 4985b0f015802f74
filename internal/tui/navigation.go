package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/ladle/internal/detail"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
)

// ViewKind identifies a screen
type ViewKind int

const (
	ViewHome ViewKind = iota
	ViewRecipe
	ViewSearch
)

// String returns the view name used in logs
func (v ViewKind) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewRecipe:
		return "recipe"
	case ViewSearch:
		return "search"
	default:
		return "unknown"
	}
}

// Route is one entry in the navigation history
type Route struct {
	Kind  ViewKind
	ID    string // recipe id for ViewRecipe
	Query string // query for ViewSearch
}

// pushRoute enters a new view, remembering the current one for Back
func (m *Model) pushRoute(r Route) {
	m.history = append(m.history, m.route)
	m.route = r
	m.logger.Debug("navigate", "view", r.Kind.String(), "recipeID", r.ID)
}

// popRoute returns to the previous view. It reports false at home.
func (m *Model) popRoute() bool {
	if len(m.history) == 0 {
		return false
	}
	m.leaveRoute()
	m.route = m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.updatePreview()
	return true
}

// resetToHome drops the whole history
func (m *Model) resetToHome() {
	m.leaveRoute()
	m.route = Route{Kind: ViewHome}
	m.history = nil
}

// leaveRoute releases what the current view owns
func (m *Model) leaveRoute() {
	if m.route.Kind == ViewRecipe {
		m.closeDetail()
	}
}

func (m *Model) closeDetail() {
	if m.detail == nil {
		return
	}
	if h, ok := m.detail.Image(); ok {
		m.thumbs.Forget(h.URL)
	}
	m.detail.Close()
	m.detail = nil
	m.dropPlaceholder()
	m.Recipe.SetResult(detail.Result{})
}

// retainPlaceholder takes a reference on the list thumbnail of id so it
// outlives a release by the home view's cache
func (m *Model) retainPlaceholder(id string) {
	if m.images == nil {
		return
	}
	if h, ok := m.images.Handle(id); ok && m.registry.Retain(h) {
		m.placeholder = h
	}
}

// dropPlaceholder gives back the recipe view's reference
func (m *Model) dropPlaceholder() {
	if m.placeholder.IsZero() {
		return
	}
	m.registry.Revoke(m.placeholder)
	m.placeholder = imagecache.Handle{}
	m.thumbs.Prune()
}

// openRecipe shows one recipe. A new fetcher is built per visit and closed
// on leaving the view.
func (m *Model) openRecipe(r domain.RecipeSummary) tea.Cmd {
	if m.route.Kind == ViewRecipe {
		m.closeDetail()
		m.route = Route{Kind: ViewRecipe, ID: r.ID}
	} else {
		m.pushRoute(Route{Kind: ViewRecipe, ID: r.ID})
	}

	configured := m.session.Credential().Configured()
	m.Recipe.SetConfigured(configured)
	if !configured {
		return nil
	}

	var images domain.ImageRepository
	if m.opts.Images {
		images = m.session.Source()
	}
	m.detail = detail.New(m.session.Source(), images, m.registry, m.session.Timeout(), m.logger)
	m.detail.Subscribe(NewChannelObserver(m.events, ImageSourceDetail))
	m.retainPlaceholder(r.ID)

	m.Recipe.SetResult(detail.Result{ID: r.ID, State: detail.StateLoading})
	return tea.Batch(FetchDetailCmd(m.detail, r.ID, m.session.Timeout()), m.startTick())
}

// openSearch runs a server search in a new view
func (m *Model) openSearch(query string) tea.Cmd {
	if m.route.Kind == ViewSearch {
		m.route = Route{Kind: ViewSearch, Query: query}
	} else {
		m.pushRoute(Route{Kind: ViewSearch, Query: query})
	}

	m.Results.ClearFilter()
	m.Results.SetRecipes(nil)
	m.Results.SetBreadcrumb(`Search Results for "` + query + `"`)
	m.Results.SetPager("")
	m.Results.SetEmptyText("Searching...")
	m.updatePreview()

	m.Searching = true
	return tea.Batch(SearchCmd(m.session, query, m.session.Directory().Recipes()), m.startTick())
}
