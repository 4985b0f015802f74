// Package directory holds the recipe index and the paging cursor over it.
package directory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/ladle/internal/domain"
)

// DefaultPageSize is the number of recipes per page
const DefaultPageSize = 20

// Directory fetches the full recipe list and pages through it locally
type Directory struct {
	repo     domain.RecipeRepository
	timeout  time.Duration
	pageSize int
	logger   *slog.Logger

	mu         sync.RWMutex
	recipes    []domain.RecipeSummary
	cursor     int
	generation uint64
}

// New creates an empty directory. A non-positive pageSize uses
// DefaultPageSize.
func New(repo domain.RecipeRepository, pageSize int, timeout time.Duration, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Directory{
		repo:     repo,
		timeout:  timeout,
		pageSize: pageSize,
		logger:   logger,
		cursor:   1,
	}
}

// FetchAll replaces the held list with the server's. Only the most recently
// started call may commit; an older one returns domain.ErrSuperseded. On
// failure the held list is left untouched.
func (d *Directory) FetchAll(ctx context.Context) error {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	recipes, err := d.repo.ListRecipes(ctx)
	if err != nil {
		d.logger.Error("failed to fetch recipes", "error", err)
		return domain.NewFetchError("list recipes", "Failed to fetch recipes", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.generation {
		d.logger.Debug("discarding superseded recipe list", "count", len(recipes))
		return domain.ErrSuperseded
	}

	d.recipes = recipes
	if last := d.lastPage(); d.cursor > last {
		d.cursor = last
	}
	d.logger.Debug("fetched recipes", "count", len(recipes))
	return nil
}

// Page returns a copy of page n (1-based) of the given size. Out of range
// pages are empty.
func (d *Directory) Page(n, size int) []domain.RecipeSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return window(d.recipes, n, size)
}

// PageSize returns the configured page size
func (d *Directory) PageSize() int {
	return d.pageSize
}

// Current returns the page under the cursor
func (d *Directory) Current() []domain.RecipeSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return window(d.recipes, d.cursor, d.pageSize)
}

// Cursor returns the 1-based current page
func (d *Directory) Cursor() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cursor
}

// NextPage advances the cursor unless the current page is the last one.
// It reports whether the cursor moved.
func (d *Directory) NextPage() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cursor*d.pageSize >= len(d.recipes) {
		return false
	}
	d.cursor++
	return true
}

// PreviousPage moves the cursor back unless it is on page 1
func (d *Directory) PreviousPage() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cursor <= 1 {
		return false
	}
	d.cursor--
	return true
}

// HasNext reports whether NextPage would move
func (d *Directory) HasNext() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cursor*d.pageSize < len(d.recipes)
}

// HasPrevious reports whether PreviousPage would move
func (d *Directory) HasPrevious() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cursor > 1
}

// TotalPages returns the page count, at least 1
func (d *Directory) TotalPages() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastPage()
}

// Recipes returns a copy of the full list
func (d *Directory) Recipes() []domain.RecipeSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]domain.RecipeSummary(nil), d.recipes...)
}

// Len returns the number of recipes held
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.recipes)
}

// lastPage must be called with mu held
func (d *Directory) lastPage() int {
	if len(d.recipes) == 0 {
		return 1
	}
	return (len(d.recipes) + d.pageSize - 1) / d.pageSize
}

func window(recipes []domain.RecipeSummary, n, size int) []domain.RecipeSummary {
	if n < 1 || size < 1 {
		return []domain.RecipeSummary{}
	}
	start := (n - 1) * size
	if start >= len(recipes) {
		return []domain.RecipeSummary{}
	}
	end := min(start+size, len(recipes))
	return append([]domain.RecipeSummary(nil), recipes[start:end]...)
}
