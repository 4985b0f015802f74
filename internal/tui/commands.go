package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/ladle/internal/detail"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
	"github.com/mmcdole/ladle/internal/search"
	"github.com/mmcdole/ladle/internal/service"
)

// Command factories for async operations

// suggestionLimit caps the "did you mean" names shown after an empty search
const suggestionLimit = 3

// opTimeout bounds a command that may chain a probe, a list fetch and
// image resolution
func opTimeout(session *service.Session) time.Duration {
	return 3 * session.Timeout()
}

// StartCmd runs the first probe. A complete credential and a reachable
// server also load the recipe list before the message is returned.
func StartCmd(session *service.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout(session))
		defer cancel()

		return ProbeDoneMsg{Result: session.Start(ctx)}
	}
}

// ReconnectCmd re-probes the server on user request
func ReconnectCmd(session *service.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout(session))
		defer cancel()

		return ProbeDoneMsg{Result: session.Reconnect(ctx)}
	}
}

// RefreshCmd reloads the recipe list. Rows and errors arrive as a
// RecipesLoadedMsg through the session observer.
func RefreshCmd(session *service.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout(session))
		defer cancel()

		return RefreshDoneMsg{Err: session.Refresh(ctx)}
	}
}

// SaveSettingsCmd persists the credential pair, which re-probes the server
func SaveSettingsCmd(session *service.Session, baseURL, token string) tea.Cmd {
	return func() tea.Msg {
		result, err := session.SaveCredential(baseURL, token)
		return SettingsSavedMsg{Result: result, Err: err}
	}
}

// LogoutCmd clears the stored credential
func LogoutCmd(session *service.Session) tea.Cmd {
	return func() tea.Msg {
		return LoggedOutMsg{Err: session.Logout()}
	}
}

// FetchDetailCmd loads one recipe through the detail view's fetcher
func FetchDetailCmd(fetcher *detail.Fetcher, id string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return DetailLoadedMsg{Result: fetcher.Fetch(ctx, id)}
	}
}

// SearchCmd runs a server-side search. An empty result carries local name
// suggestions from known recipes.
func SearchCmd(session *service.Session, query string, known []domain.RecipeSummary) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), session.Timeout())
		defer cancel()

		results, err := session.Search(ctx, query)
		msg := SearchResultsMsg{Query: query, Results: results, Err: err}
		if err == nil && len(results) == 0 {
			msg.Suggestions = search.Suggest(query, known, suggestionLimit)
		}
		return msg
	}
}

// ResolveImagesCmd resolves thumbnails for recipes outside the current
// page. Each arrival is announced through the cache observer.
func ResolveImagesCmd(cache *imagecache.Cache, recipes []domain.RecipeSummary, timeout time.Duration) tea.Cmd {
	ids := make([]string, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		cache.ResolveAll(ctx, ids)
		return nil
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status message after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
