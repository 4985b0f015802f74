package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/ladle/internal/cookbook"
	"github.com/mmcdole/ladle/internal/cookbook/cookbooktest"
	"github.com/mmcdole/ladle/internal/credential"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
	"github.com/mmcdole/ladle/internal/store"
)

type recordingObserver struct {
	mu       sync.Mutex
	statuses []domain.ConnectionStatus
	recipes  []error
}

func (o *recordingObserver) OnStatus(status domain.ConnectionStatus, _ string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) OnRecipes(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recipes = append(o.recipes, err)
}

func (o *recordingObserver) recipeEvents() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.recipes...)
}

type harness struct {
	fake    *cookbooktest.Server
	url     string
	session *Session
	cache   *imagecache.Cache
	obs     *recordingObserver
}

func newHarness(t *testing.T, recipes int) *harness {
	t.Helper()
	fake := cookbooktest.New()
	fake.Seed(recipes)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	kv, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	creds := credential.New(kv, nil)
	client := cookbook.NewClient(creds, 5*time.Second, nil)
	session := NewSession(creds, client, Options{Timeout: 5 * time.Second, PageSize: 20}, nil)
	cache := imagecache.New(client, nil, domain.ImageSizeThumb, 5*time.Second, nil)
	session.AttachImages(cache)

	obs := &recordingObserver{}
	session.Subscribe(obs)

	t.Cleanup(func() {
		session.Close()
		cache.Close()
	})
	return &harness{fake: fake, url: srv.URL, session: session, cache: cache, obs: obs}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSession_UnconfiguredStaysDisconnected(t *testing.T) {
	h := newHarness(t, 5)

	got := h.session.Start(context.Background())
	if got.Status != domain.StatusDisconnected {
		t.Fatalf("Status = %v, want Disconnected", got.Status)
	}
	if h.fake.Hits(cookbooktest.RouteVersion)+h.fake.Hits(cookbooktest.RouteList) != 0 {
		t.Fatal("network used without a credential")
	}
}

func TestSession_SaveConnectsFetchesAndResolvesFirstPage(t *testing.T) {
	h := newHarness(t, 45)

	got, err := h.session.SaveCredential(h.url, "tok")
	if err != nil {
		t.Fatalf("SaveCredential returned error: %v", err)
	}
	if got.Status != domain.StatusConnected || got.Version != "0.10.2" {
		t.Fatalf("SaveCredential = %+v, want Connected 0.10.2", got)
	}
	if h.session.Directory().Len() != 45 {
		t.Fatalf("directory holds %d recipes, want 45", h.session.Directory().Len())
	}
	if events := h.obs.recipeEvents(); len(events) != 1 || events[0] != nil {
		t.Fatalf("OnRecipes events = %v, want one success", events)
	}

	waitFor(t, "first page images", func() bool { return h.cache.Len() == 20 })
	if hits := h.fake.Hits(cookbooktest.RouteImage); hits != 20 {
		t.Fatalf("image fetches = %d, want 20 (current page only)", hits)
	}
}

func TestSession_PageNavigationResolvesVisiblePage(t *testing.T) {
	h := newHarness(t, 45)
	h.session.SaveCredential(h.url, "tok")
	waitFor(t, "first page images", func() bool { return h.cache.Len() == 20 })

	if !h.session.NextPage() || !h.session.NextPage() {
		t.Fatal("NextPage did not move")
	}
	if h.session.NextPage() {
		t.Fatal("NextPage moved past the last page")
	}
	waitFor(t, "all images", func() bool { return h.cache.Len() == 45 })

	if !h.session.PreviousPage() {
		t.Fatal("PreviousPage did not move")
	}
	// Page 2 is already cached
	h.session.ResolveCurrentPage(context.Background())
	if hits := h.fake.Hits(cookbooktest.RouteImage); hits != 45 {
		t.Fatalf("image fetches = %d, want 45", hits)
	}
}

func TestSession_ReconnectWhileConnectedDoesNotRefetch(t *testing.T) {
	h := newHarness(t, 3)
	h.session.SaveCredential(h.url, "tok")

	h.session.Reconnect(context.Background())
	h.session.Reconnect(context.Background())

	if hits := h.fake.Hits(cookbooktest.RouteList); hits != 1 {
		t.Fatalf("recipe list fetched %d times, want 1", hits)
	}
	if hits := h.fake.Hits(cookbooktest.RouteVersion); hits != 3 {
		t.Fatalf("version probed %d times, want 3", hits)
	}
}

func TestSession_FetchFailureIsReportedAndConnectionKept(t *testing.T) {
	h := newHarness(t, 3)
	h.fake.Fail(cookbooktest.RouteList, http.StatusInternalServerError)

	got, _ := h.session.SaveCredential(h.url, "tok")
	if got.Status != domain.StatusConnected {
		t.Fatalf("Status = %v, want Connected", got.Status)
	}

	events := h.obs.recipeEvents()
	if len(events) != 1 || !errors.Is(events[0], domain.ErrFetchFailed) {
		t.Fatalf("OnRecipes events = %v, want one fetch failure", events)
	}
	if h.session.Directory().Len() != 0 {
		t.Fatalf("directory holds %d recipes, want 0", h.session.Directory().Len())
	}

	h.fake.Fail(cookbooktest.RouteList, 0)
	if err := h.session.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if h.session.Directory().Len() != 3 {
		t.Fatalf("directory holds %d recipes after refresh, want 3", h.session.Directory().Len())
	}
}

func TestSession_BadTokenIsConnectionError(t *testing.T) {
	h := newHarness(t, 3)
	h.fake.RequireToken("right")

	got, err := h.session.SaveCredential(h.url, "wrong")
	if err != nil {
		t.Fatalf("SaveCredential returned error: %v", err)
	}
	if got.Status != domain.StatusError {
		t.Fatalf("Status = %v, want Error", got.Status)
	}
	if h.fake.Hits(cookbooktest.RouteList) != 0 {
		t.Fatal("recipe list fetched without a connection")
	}
}

func TestSession_LogoutDisconnects(t *testing.T) {
	h := newHarness(t, 3)
	h.session.SaveCredential(h.url, "tok")

	if err := h.session.Logout(); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if status := h.session.Monitor().Status(); status != domain.StatusDisconnected {
		t.Fatalf("Status after Logout = %v, want Disconnected", status)
	}
	if h.session.Credential().Configured() {
		t.Fatal("credential still configured after Logout")
	}
}

func TestSession_SwitchingServersReloadsRecipes(t *testing.T) {
	h := newHarness(t, 3)
	h.session.SaveCredential(h.url, "tok")
	waitFor(t, "first server images", func() bool { return h.cache.Len() == 3 })

	other := cookbooktest.New()
	other.Seed(7)
	srv := httptest.NewServer(other.Handler())
	defer srv.Close()

	got, err := h.session.SaveCredential(srv.URL, "tok2")
	if err != nil {
		t.Fatalf("SaveCredential returned error: %v", err)
	}
	if got.Status != domain.StatusConnected {
		t.Fatalf("Status = %v, want Connected", got.Status)
	}
	if hits := other.Hits(cookbooktest.RouteList); hits != 1 {
		t.Fatalf("second server list fetched %d times, want 1", hits)
	}
	if n := h.session.Directory().Len(); n != 7 {
		t.Fatalf("directory holds %d recipes, want 7", n)
	}
	if events := h.obs.recipeEvents(); len(events) != 2 {
		t.Fatalf("OnRecipes events = %d, want 2", len(events))
	}

	waitFor(t, "second server images", func() bool { return h.cache.Len() == 7 })
	if hits := other.Hits(cookbooktest.RouteImage); hits != 7 {
		t.Fatalf("second server image fetches = %d, want 7", hits)
	}
	if hits := h.fake.Hits(cookbooktest.RouteImage); hits != 3 {
		t.Fatalf("first server image fetches = %d, want 3", hits)
	}
}
