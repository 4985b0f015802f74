package tui

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/ladle/internal/cookbook"
	"github.com/mmcdole/ladle/internal/cookbook/cookbooktest"
	"github.com/mmcdole/ladle/internal/credential"
	"github.com/mmcdole/ladle/internal/detail"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/service"
	"github.com/mmcdole/ladle/internal/store"
)

func newTestSession(t *testing.T, fake *cookbooktest.Server) (*service.Session, string) {
	t.Helper()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	kv, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	creds := credential.New(kv, nil)
	client := cookbook.NewClient(creds, 5*time.Second, nil)
	session := service.NewSession(creds, client, service.Options{Timeout: 5 * time.Second, PageSize: 20}, nil)
	t.Cleanup(session.Close)
	return session, srv.URL
}

func newTestModel(t *testing.T, session *service.Session) Model {
	t.Helper()
	m := NewModel(session, Options{Images: true, GlamourStyle: "notty"})
	t.Cleanup(m.Shutdown)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChannelObserver_DropsWhenFull(t *testing.T) {
	ch := make(chan tea.Msg, 1)
	obs := NewChannelObserver(ch, ImageSourceDetail)

	obs.OnImage("1", "blob:ladle/a")
	obs.OnImage("2", "blob:ladle/b")

	msg := ListenCmd(ch)()
	img, ok := msg.(ImageReadyMsg)
	if !ok || img.RecipeID != "1" || img.Source != ImageSourceDetail {
		t.Fatalf("ListenCmd = %#v, want image for recipe 1", msg)
	}
	if len(ch) != 0 {
		t.Fatalf("channel holds %d messages, want 0", len(ch))
	}
}

func TestSearchCmd_SuggestsOnEmptyResults(t *testing.T) {
	fake := cookbooktest.New()
	fake.SetRecipes([]cookbooktest.Recipe{
		{ID: "1", Name: "Tomato Soup"},
		{ID: "2", Name: "Lemon Tart"},
	})
	session, url := newTestSession(t, fake)
	if _, err := session.SaveCredential(url, "tok"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}

	msg := SearchCmd(session, "tomatto", session.Directory().Recipes())().(SearchResultsMsg)
	if msg.Err != nil || len(msg.Results) != 0 {
		t.Fatalf("SearchResultsMsg = %+v, want no results", msg)
	}
	if len(msg.Suggestions) == 0 || msg.Suggestions[0] != "Tomato Soup" {
		t.Fatalf("Suggestions = %v, want Tomato Soup first", msg.Suggestions)
	}

	msg = SearchCmd(session, "lemon", nil)().(SearchResultsMsg)
	if len(msg.Results) != 1 || msg.Results[0].Name != "Lemon Tart" {
		t.Fatalf("Results = %v, want Lemon Tart", msg.Results)
	}
}

func TestModel_FirstProbeWithoutCredentialOpensSettings(t *testing.T) {
	session, _ := newTestSession(t, cookbooktest.New())
	m := newTestModel(t, session)

	m, _ = update(t, m, StartCmd(session)())
	if m.State != StateSettings {
		t.Fatalf("State = %v, want StateSettings", m.State)
	}
	if m.Loading {
		t.Fatal("still loading after the probe")
	}
}

func TestModel_PagesAndOpensRecipe(t *testing.T) {
	fake := cookbooktest.New()
	fake.Seed(25)
	session, url := newTestSession(t, fake)
	m := newTestModel(t, session)

	if _, err := session.SaveCredential(url, "tok"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	m, _ = update(t, m, RecipesLoadedMsg{})
	if m.List.Len() != 20 {
		t.Fatalf("home rows = %d, want 20", m.List.Len())
	}

	m, _ = update(t, m, keyMsg("right"))
	if m.List.Len() != 5 {
		t.Fatalf("rows on page 2 = %d, want 5", m.List.Len())
	}
	selected, _ := m.List.Selected()

	m, cmd := update(t, m, keyMsg("enter"))
	if m.route.Kind != ViewRecipe || m.route.ID != selected.ID || m.detail == nil {
		t.Fatalf("route = %+v, detail = %v, want recipe %s", m.route, m.detail, selected.ID)
	}
	if cmd == nil {
		t.Fatal("opening a recipe issued no fetch")
	}

	m, _ = update(t, m, FetchDetailCmd(m.detail, selected.ID, 5*time.Second)())
	if got := m.Recipe.Result(); got.State != detail.StateLoaded || got.Recipe.Name != selected.Name {
		t.Fatalf("recipe view = %+v, want %s loaded", got, selected.Name)
	}

	m, _ = update(t, m, keyMsg("esc"))
	if m.route.Kind != ViewHome || m.detail != nil {
		t.Fatalf("after esc route = %+v, detail = %v, want home without fetcher", m.route, m.detail)
	}
}

func TestModel_RecipeViewKeepsThumbnailAfterListRelease(t *testing.T) {
	fake := cookbooktest.New()
	fake.Seed(3)
	session, url := newTestSession(t, fake)
	m := newTestModel(t, session)

	if _, err := session.SaveCredential(url, "tok"); err != nil {
		t.Fatalf("SaveCredential: %v", err)
	}
	m, _ = update(t, m, RecipesLoadedMsg{})
	session.ResolveCurrentPage(context.Background())
	selected, _ := m.List.Selected()
	thumb, ok := m.images.Handle(selected.ID)
	if !ok {
		t.Fatalf("no thumbnail for recipe %s", selected.ID)
	}

	m, _ = update(t, m, keyMsg("enter"))
	if m.placeholder != thumb {
		t.Fatalf("placeholder = %v, want list thumbnail %v", m.placeholder, thumb)
	}

	m.images.ReleaseAll()
	if _, _, ok := m.registry.Open(thumb); !ok {
		t.Fatal("thumbnail freed while the recipe view still holds it")
	}

	m, _ = update(t, m, keyMsg("esc"))
	if !m.placeholder.IsZero() {
		t.Fatalf("placeholder = %v after leaving, want none", m.placeholder)
	}
	if _, _, ok := m.registry.Open(thumb); ok {
		t.Fatal("thumbnail still registered after both holders released it")
	}
}

func TestModel_RecipeWithoutCredentialShowsPrompt(t *testing.T) {
	session, _ := newTestSession(t, cookbooktest.New())
	m := newTestModel(t, session)

	cmd := m.openRecipe(domain.RecipeSummary{ID: "1", Name: "Soup"})
	if cmd != nil || m.detail != nil {
		t.Fatal("recipe fetch started without a credential")
	}
}

func TestModel_FetchFailureShowsToast(t *testing.T) {
	session, _ := newTestSession(t, cookbooktest.New())
	m := newTestModel(t, session)

	err := domain.NewFetchError("list recipes", "Failed to fetch recipes", nil)
	m, _ = update(t, m, RecipesLoadedMsg{Err: err})
	if m.StatusMsg != "Failed to fetch recipes" || !m.StatusIsErr {
		t.Fatalf("status = %q (err %v), want fetch failure toast", m.StatusMsg, m.StatusIsErr)
	}
}

func TestModel_SettingsSavedToast(t *testing.T) {
	session, _ := newTestSession(t, cookbooktest.New())
	m := newTestModel(t, session)

	m, _ = update(t, m, SettingsSavedMsg{})
	if m.StatusMsg != "Settings saved successfully" || m.StatusIsErr {
		t.Fatalf("status = %q, want success toast", m.StatusMsg)
	}
}
