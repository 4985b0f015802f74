package detail

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/ladle/internal/cookbook"
	"github.com/mmcdole/ladle/internal/cookbook/cookbooktest"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
)

func newTestFetcher(t *testing.T, fake *cookbooktest.Server) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	creds := domain.StaticCredential{BaseURL: srv.URL, Token: "tok"}
	client := cookbook.NewClient(creds, 0, nil)
	f := New(client, client, imagecache.NewRegistry(), 5*time.Second, nil)
	t.Cleanup(f.Close)
	return f
}

// imageWaiter returns a channel receiving each announced image URL
func imageWaiter(f *Fetcher) <-chan string {
	ch := make(chan string, 4)
	f.Subscribe(domain.ImageFunc(func(_, url string) { ch <- url }))
	return ch
}

func waitImage(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case url := <-ch:
		return url
	case <-time.After(5 * time.Second):
		t.Fatal("image was never announced")
		return ""
	}
}

func TestFetch_Loaded(t *testing.T) {
	fake := cookbooktest.New()
	fake.SetRecipes([]cookbooktest.Recipe{{
		ID:           "9",
		Name:         "Pancakes",
		TotalTime:    "PT1H30M",
		Yield:        4,
		Ingredients:  []string{"flour", "milk", "eggs"},
		Instructions: []string{"Whisk.", "Fry."},
	}})
	f := newTestFetcher(t, fake)
	images := imageWaiter(f)

	got := f.Fetch(context.Background(), "9")
	if got.State != StateLoaded {
		t.Fatalf("State = %v, want loaded (err %v)", got.State, got.Err)
	}
	if got.Recipe.Name != "Pancakes" || len(got.Recipe.Ingredients) != 3 {
		t.Fatalf("Recipe = %#v", got.Recipe)
	}
	if got.Recipe.FormattedTotalTime() != "1h 30m" {
		t.Fatalf("FormattedTotalTime = %q, want 1h 30m", got.Recipe.FormattedTotalTime())
	}

	url := waitImage(t, images)
	h, ok := f.Image()
	if !ok || h.URL != url {
		t.Fatalf("Image() = %v, %v; want handle %q", h, ok, url)
	}
	if reqs := fake.Requests(cookbooktest.RouteImage); reqs[0] != "/api/v1/recipes/9/image?size=full" {
		t.Fatalf("image request = %q, want full size", reqs[0])
	}
}

func TestFetch_EmptyBodyIsNotFound(t *testing.T) {
	fake := cookbooktest.New()
	f := newTestFetcher(t, fake)

	got := f.Fetch(context.Background(), "404")
	if got.State != StateNotFound {
		t.Fatalf("State = %v, want not found", got.State)
	}
	if got.Message() != "Recipe not found" {
		t.Fatalf("Message = %q", got.Message())
	}
	if errors.Is(got.Err, domain.ErrFetchFailed) {
		t.Fatal("not found reported as a fetch failure")
	}
	if hits := fake.Hits(cookbooktest.RouteImage); hits != 0 {
		t.Fatalf("image requested %d times for a missing recipe", hits)
	}
}

func TestFetch_ObjectWithoutIDOrNameIsNotFound(t *testing.T) {
	var imageHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/image") {
			imageHits++
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := cookbook.NewClient(domain.StaticCredential{BaseURL: srv.URL, Token: "tok"}, 0, nil)
	f := New(client, client, imagecache.NewRegistry(), 5*time.Second, nil)
	defer f.Close()

	got := f.Fetch(context.Background(), "42")
	if got.State != StateNotFound {
		t.Fatalf("State = %v, want not found", got.State)
	}
	if got.Recipe != nil {
		t.Fatalf("Recipe = %#v, want nil", got.Recipe)
	}
	if imageHits != 0 {
		t.Fatalf("image requested %d times for a missing recipe", imageHits)
	}
}

func TestFetch_ServerErrorIsFailed(t *testing.T) {
	fake := cookbooktest.New()
	fake.Seed(1)
	fake.Fail(cookbooktest.RouteRecipe, http.StatusInternalServerError)
	f := newTestFetcher(t, fake)

	got := f.Fetch(context.Background(), "1")
	if got.State != StateFailed {
		t.Fatalf("State = %v, want failed", got.State)
	}
	if !errors.Is(got.Err, domain.ErrFetchFailed) {
		t.Fatalf("Err = %v, want ErrFetchFailed", got.Err)
	}
	if got.Message() != "Failed to load recipe" {
		t.Fatalf("Message = %q", got.Message())
	}
}

func TestFetch_ImageFailureIsSilent(t *testing.T) {
	fake := cookbooktest.New()
	fake.SetRecipes([]cookbooktest.Recipe{{ID: "1", Name: "Toast", NoImage: true}})
	f := newTestFetcher(t, fake)

	got := f.Fetch(context.Background(), "1")
	if got.State != StateLoaded {
		t.Fatalf("State = %v, want loaded", got.State)
	}
	deadline := time.Now().Add(5 * time.Second)
	for fake.Hits(cookbooktest.RouteImage) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if _, ok := f.Image(); ok {
		t.Fatal("Image() reported a handle for a missing image")
	}
	if f.Current().State != StateLoaded {
		t.Fatalf("Current().State = %v after image failure", f.Current().State)
	}
}

func TestFetch_NextRecipeReleasesPreviousImage(t *testing.T) {
	fake := cookbooktest.New()
	fake.Seed(2)
	f := newTestFetcher(t, fake)
	images := imageWaiter(f)

	f.Fetch(context.Background(), "1")
	first, _ := imagecache.ParseHandle(waitImage(t, images))

	f.Fetch(context.Background(), "2")
	waitImage(t, images)

	if _, _, ok := f.Registry().Open(first); ok {
		t.Fatal("previous recipe's image still held")
	}
	if f.Registry().Len() != 1 {
		t.Fatalf("registry holds %d handles, want 1", f.Registry().Len())
	}
}

func TestClose_ReleasesImage(t *testing.T) {
	fake := cookbooktest.New()
	fake.Seed(1)
	f := newTestFetcher(t, fake)
	images := imageWaiter(f)

	f.Fetch(context.Background(), "1")
	waitImage(t, images)

	f.Close()
	if f.Registry().Len() != 0 {
		t.Fatalf("registry holds %d handles after Close, want 0", f.Registry().Len())
	}
	if got := f.Fetch(context.Background(), "1"); got.State != StateIdle {
		t.Fatalf("Fetch after Close = %v, want idle", got.State)
	}
}

func TestClose_DiscardsLateImage(t *testing.T) {
	fake := cookbooktest.New()
	fake.Seed(1)
	f := newTestFetcher(t, fake)
	release := fake.Block(cookbooktest.RouteImage)
	defer release()

	if got := f.Fetch(context.Background(), "1"); got.State != StateLoaded {
		t.Fatalf("State = %v, want loaded", got.State)
	}
	deadline := time.Now().Add(5 * time.Second)
	for fake.Hits(cookbooktest.RouteImage) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	f.Close()
	release()
	time.Sleep(20 * time.Millisecond)

	if f.Registry().Len() != 0 {
		t.Fatalf("registry holds %d handles, want 0", f.Registry().Len())
	}
}

func TestFetch_WithoutImageRepositorySkipsPicture(t *testing.T) {
	fake := cookbooktest.New()
	fake.Seed(1)
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()
	client := cookbook.NewClient(domain.StaticCredential{BaseURL: srv.URL, Token: "tok"}, 0, nil)
	f := New(client, nil, nil, 5*time.Second, nil)
	defer f.Close()

	if got := f.Fetch(context.Background(), "1"); got.State != StateLoaded {
		t.Fatalf("State = %v, want loaded", got.State)
	}
	if hits := fake.Hits(cookbooktest.RouteImage); hits != 0 {
		t.Fatalf("image fetches = %d, want 0", hits)
	}
}
