// Package imagecache fetches recipe images and holds them behind local,
// revocable handles.
package imagecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/ladle/internal/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// errRevoked is returned by a flight whose id was released while it ran
var errRevoked = errors.New("image released before fetch completed")

// Acquire fetches one image and registers it. The caller owns the returned
// handle and must revoke it.
func Acquire(ctx context.Context, repo domain.ImageRepository, registry *Registry, id string, size domain.ImageSize) (Handle, error) {
	img, err := repo.GetImage(ctx, id, size)
	if err != nil {
		return Handle{}, err
	}
	if len(img.Data) == 0 {
		return Handle{}, fmt.Errorf("%w: empty body", domain.ErrImageUnavailable)
	}
	return registry.Create(img.Data, img.ContentType), nil
}

// Cache maps recipe ids to image handles. Each entry exclusively owns its
// handle. The owner must call Close.
type Cache struct {
	repo     domain.ImageRepository
	registry *Registry
	size     domain.ImageSize
	timeout  time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu        sync.Mutex
	entries   map[string]Handle
	epochs    map[string]uint64
	busy      map[string]int // resolves and fetches in progress per id
	epoch     uint64         // bumped by ReleaseAll
	closed    bool
	observers []domain.ImageObserver
}

// New creates a cache fetching images at the given size
func New(repo domain.ImageRepository, registry *Registry, size domain.ImageSize, timeout time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		repo:     repo,
		registry: registry,
		size:     size,
		timeout:  timeout,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]Handle),
		epochs:   make(map[string]uint64),
		busy:     make(map[string]int),
	}
}

// Registry returns the registry holding this cache's bytes
func (c *Cache) Registry() *Registry {
	return c.registry
}

// Subscribe registers an observer told about every newly stored handle
func (c *Cache) Subscribe(obs domain.ImageObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, obs)
}

// Handle returns the stored handle for id without fetching
func (c *Cache) Handle(id string) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[id]
	return h, ok
}

// Len returns the number of stored entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Resolve returns the handle for id, fetching it on a miss. Concurrent
// resolves of one id share a single fetch. Failures create no entry and are
// reported only as ok=false.
func (c *Cache) Resolve(ctx context.Context, id string) (Handle, bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Handle{}, false
	}
	if h, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return h, true
	}
	idEpoch, epoch := c.epochs[id], c.epoch
	c.busy[id]++
	c.mu.Unlock()
	defer c.done(id)

	// A release starts a new flight key so later resolves never join a
	// flight whose result will be discarded
	key := fmt.Sprintf("%s#%d.%d", id, idEpoch, epoch)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(id, idEpoch, epoch)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Handle{}, false
		}
		return res.Val.(Handle), true
	case <-ctx.Done():
		return Handle{}, false
	}
}

// fetch runs once per flight. The result is stored only if neither epoch
// moved while it ran.
func (c *Cache) fetch(id string, idEpoch, epoch uint64) (Handle, error) {
	c.mu.Lock()
	if h, ok := c.entries[id]; ok {
		c.mu.Unlock()
		return h, nil
	}
	c.busy[id]++
	c.mu.Unlock()
	defer c.done(id)

	ctx := c.ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	h, err := Acquire(ctx, c.repo, c.registry, id, c.size)
	if err != nil {
		c.logger.Debug("image unavailable", "recipeID", id, "error", err)
		return Handle{}, err
	}

	c.mu.Lock()
	if c.closed || c.epochs[id] != idEpoch || c.epoch != epoch {
		c.mu.Unlock()
		c.registry.Revoke(h)
		c.logger.Debug("discarding released image", "recipeID", id)
		return Handle{}, errRevoked
	}
	if existing, ok := c.entries[id]; ok {
		c.mu.Unlock()
		c.registry.Revoke(h)
		return existing, nil
	}
	c.entries[id] = h
	observers := append([]domain.ImageObserver(nil), c.observers...)
	c.mu.Unlock()

	for _, obs := range observers {
		obs.OnImage(id, h.URL)
	}
	return h, nil
}

// done ends one resolve or fetch of id. With nothing left in progress the
// id's epoch is no longer compared and is dropped.
func (c *Cache) done(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[id]--; c.busy[id] <= 0 {
		delete(c.busy, id)
		delete(c.epochs, id)
	}
}

// ResolveAll resolves ids concurrently and returns the handles that
// resolved. Each result is stored and announced as it lands.
func (c *Cache) ResolveAll(ctx context.Context, ids []string) map[string]Handle {
	var (
		mu       sync.Mutex
		resolved = make(map[string]Handle, len(ids))
		g        errgroup.Group
	)

	for _, id := range ids {
		id := id // per-iteration copy; pre-Go 1.22 loop semantics
		g.Go(func() error {
			if h, ok := c.Resolve(ctx, id); ok {
				mu.Lock()
				resolved[id] = h
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Debug("resolved images", "requested", len(ids), "count", len(resolved))
	return resolved
}

// Release revokes the handle for id. In-flight fetches for id discard their
// result. Safe to call repeatedly.
func (c *Cache) Release(id string) {
	c.mu.Lock()
	h, ok := c.entries[id]
	if ok || c.busy[id] > 0 {
		delete(c.entries, id)
		c.epochs[id]++
	}
	c.mu.Unlock()

	if ok {
		c.registry.Revoke(h)
	}
}

// ReleaseAll revokes every handle and invalidates in-flight fetches
func (c *Cache) ReleaseAll() {
	c.mu.Lock()
	handles := c.drain()
	c.epoch++
	// Flights started before this point carry the old epoch
	c.epochs = make(map[string]uint64)
	c.mu.Unlock()

	for _, h := range handles {
		c.registry.Revoke(h)
	}
}

// Close cancels in-flight fetches and releases every handle. Later resolves
// fail.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	handles := c.drain()
	c.mu.Unlock()

	c.cancel()
	for _, h := range handles {
		c.registry.Revoke(h)
	}
	c.logger.Debug("image cache closed", "count", len(handles))
}

// drain must be called with mu held
func (c *Cache) drain() []Handle {
	handles := make([]Handle, 0, len(c.entries))
	for id, h := range c.entries {
		handles = append(handles, h)
		delete(c.entries, id)
	}
	return handles
}
