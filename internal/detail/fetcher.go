// Package detail loads a single recipe record and its full-size image.
package detail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
)

// State is the lifecycle of one detail fetch
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateNotFound
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateNotFound:
		return "not found"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of Fetch
type Result struct {
	ID     string
	State  State
	Recipe *domain.RecipeDetail
	Err    error
}

// Message returns the text shown for a NotFound or Failed result
func (r Result) Message() string {
	switch r.State {
	case StateNotFound:
		return "Recipe not found"
	case StateFailed:
		return domain.UserMessage(r.Err)
	default:
		return ""
	}
}

// Fetcher loads one recipe at a time and owns at most one image handle.
// The owner must call Close.
type Fetcher struct {
	recipes  domain.RecipeRepository
	images   domain.ImageRepository
	registry *imagecache.Registry
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	seq       uint64
	current   Result
	image     imagecache.Handle
	cancel    context.CancelFunc
	closed    bool
	observers []domain.ImageObserver
}

// New creates an idle fetcher. A nil images repository skips the picture.
func New(recipes domain.RecipeRepository, images domain.ImageRepository, registry *imagecache.Registry, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = imagecache.NewRegistry()
	}
	return &Fetcher{
		recipes:  recipes,
		images:   images,
		registry: registry,
		timeout:  timeout,
		logger:   logger,
	}
}

// Subscribe registers an observer told when the recipe image arrives
func (f *Fetcher) Subscribe(obs domain.ImageObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, obs)
}

// Registry returns the registry holding the image bytes
func (f *Fetcher) Registry() *imagecache.Registry {
	return f.registry
}

// Current returns the latest committed result
func (f *Fetcher) Current() Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Image returns the handle for the loaded recipe's image, if any
func (f *Fetcher) Image() (imagecache.Handle, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.image, !f.image.IsZero()
}

// Fetch loads recipe id, replacing whatever was loaded before. On success
// the image is fetched in the background and announced to observers.
func (f *Fetcher) Fetch(ctx context.Context, id string) Result {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Result{ID: id, State: StateIdle}
	}
	f.seq++
	seq := f.seq
	if f.cancel != nil {
		f.cancel()
	}
	prev := f.image
	f.image = imagecache.Handle{}
	// The image outlives the caller's ctx and ends with Close or the next Fetch
	imageCtx, cancelImage := context.WithCancel(context.WithoutCancel(ctx))
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = func() {
		cancel()
		cancelImage()
	}
	f.current = Result{ID: id, State: StateLoading}
	f.mu.Unlock()

	if !prev.IsZero() {
		f.registry.Revoke(prev)
	}

	result := f.load(ctx, id)

	f.mu.Lock()
	if f.closed || seq != f.seq {
		f.mu.Unlock()
		return Result{ID: id, State: StateIdle, Err: domain.ErrSuperseded}
	}
	f.current = result
	f.mu.Unlock()

	cancel()
	if result.State == StateLoaded && f.images != nil {
		go f.loadImage(imageCtx, seq, id)
	} else {
		cancelImage()
	}
	return result
}

func (f *Fetcher) load(ctx context.Context, id string) Result {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	recipe, err := f.recipes.GetRecipe(ctx, id)
	if err != nil {
		f.logger.Error("failed to load recipe", "recipeID", id, "error", err)
		return Result{
			ID:    id,
			State: StateFailed,
			Err:   domain.NewFetchError("load recipe", "Failed to load recipe", err),
		}
	}
	if recipe.IsEmpty() {
		f.logger.Warn("recipe not found", "recipeID", id)
		return Result{ID: id, State: StateNotFound, Err: domain.ErrRecipeNotFound}
	}

	f.logger.Debug("loaded recipe", "recipeID", id, "ingredients", len(recipe.Ingredients))
	return Result{ID: id, State: StateLoaded, Recipe: recipe}
}

// loadImage acquires the full-size image. Failure is silent. A result that
// lands after Close or a newer Fetch is revoked.
func (f *Fetcher) loadImage(ctx context.Context, seq uint64, id string) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	h, err := imagecache.Acquire(ctx, f.images, f.registry, id, domain.ImageSizeFull)
	if err != nil {
		f.logger.Debug("recipe image unavailable", "recipeID", id, "error", err)
		return
	}

	f.mu.Lock()
	if f.closed || seq != f.seq {
		f.mu.Unlock()
		f.registry.Revoke(h)
		return
	}
	f.image = h
	observers := append([]domain.ImageObserver(nil), f.observers...)
	f.mu.Unlock()

	for _, obs := range observers {
		obs.OnImage(id, h.URL)
	}
}

// Close cancels in-flight work and releases the image handle
func (f *Fetcher) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	h := f.image
	f.image = imagecache.Handle{}
	cancel := f.cancel
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if !h.IsZero() {
		f.registry.Revoke(h)
	}
}
