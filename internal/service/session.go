// Package service wires the credential store, connection monitor, recipe
// directory and image cache into the connect, fetch, resolve flow.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/ladle/internal/connection"
	"github.com/mmcdole/ladle/internal/credential"
	"github.com/mmcdole/ladle/internal/directory"
	"github.com/mmcdole/ladle/internal/domain"
	"github.com/mmcdole/ladle/internal/imagecache"
	"github.com/mmcdole/ladle/internal/search"
)

// Observer is told about connection and recipe list changes
type Observer interface {
	domain.StatusObserver

	// OnRecipes follows every committed or failed directory fetch
	OnRecipes(err error)
}

// Options tunes a Session
type Options struct {
	Timeout  time.Duration
	PageSize int
}

// Session owns the core components for one run of the client
type Session struct {
	creds     *credential.Store
	source    domain.CookbookSource
	monitor   *connection.Monitor
	directory *directory.Directory
	search    *search.Fetcher
	timeout   time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	images    *imagecache.Cache
	observers []Observer
	closed    bool
}

// NewSession builds the core components around one credential store and
// remote source
func NewSession(creds *credential.Store, source domain.CookbookSource, opts Options, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		creds:     creds,
		source:    source,
		monitor:   connection.NewMonitor(creds, source, opts.Timeout, logger),
		directory: directory.New(source, opts.PageSize, opts.Timeout, logger),
		search:    search.NewFetcher(source, opts.Timeout, logger),
		timeout:   opts.Timeout,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	s.monitor.OnStatus(domain.StatusFunc(s.publishStatus))
	s.monitor.OnConnected(domain.ConnectedFunc(func(string) {
		s.loadRecipes(s.ctx)
	}))
	creds.OnChange(func(domain.Credential) {
		s.credentialChanged(s.ctx)
	})
	return s
}

// Subscribe registers a UI observer
func (s *Session) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// Credential returns the current credential pair
func (s *Session) Credential() domain.Credential {
	return s.creds.Get()
}

// Monitor returns the connection monitor
func (s *Session) Monitor() *connection.Monitor {
	return s.monitor
}

// Directory returns the recipe directory
func (s *Session) Directory() *directory.Directory {
	return s.directory
}

// Source returns the remote source, for components the UI builds itself
func (s *Session) Source() domain.CookbookSource {
	return s.source
}

// Timeout returns the per-request bound
func (s *Session) Timeout() time.Duration {
	return s.timeout
}

// AttachImages hands the session the home view's image cache. The view
// still owns it and must Close it.
func (s *Session) AttachImages(cache *imagecache.Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = cache
}

// DetachImages drops the attached cache
func (s *Session) DetachImages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = nil
}

// Start runs the first probe. If the credential is complete and the server
// answers, the recipe list is loaded before it returns.
func (s *Session) Start(ctx context.Context) connection.ProbeResult {
	return s.monitor.Probe(ctx)
}

// Reconnect re-probes on user request
func (s *Session) Reconnect(ctx context.Context) connection.ProbeResult {
	return s.monitor.Probe(ctx)
}

// SaveCredential persists the pair; the change triggers a re-probe
func (s *Session) SaveCredential(baseURL, token string) (connection.ProbeResult, error) {
	if err := s.creds.Save(baseURL, token); err != nil {
		return connection.ProbeResult{Status: s.monitor.Status()}, err
	}
	return connection.ProbeResult{Status: s.monitor.Status(), Version: s.monitor.Version()}, nil
}

// Logout clears the stored credential
func (s *Session) Logout() error {
	return s.creds.Clear()
}

// Refresh reloads the recipe list regardless of connection edges
func (s *Session) Refresh(ctx context.Context) error {
	return s.loadRecipes(ctx)
}

// NextPage advances the cursor and resolves the newly visible images
func (s *Session) NextPage() bool {
	if !s.directory.NextPage() {
		return false
	}
	s.resolvePageAsync()
	return true
}

// PreviousPage moves the cursor back and resolves the visible images
func (s *Session) PreviousPage() bool {
	if !s.directory.PreviousPage() {
		return false
	}
	s.resolvePageAsync()
	return true
}

// Search runs a server-side query
func (s *Session) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	return s.search.Search(ctx, query)
}

// ResolveCurrentPage resolves images for every recipe on the current page
// and returns the handles that resolved
func (s *Session) ResolveCurrentPage(ctx context.Context) map[string]imagecache.Handle {
	cache, ids := s.pageImages()
	if cache == nil {
		return nil
	}
	return cache.ResolveAll(ctx, ids)
}

// pageImages snapshots the attached cache and the ids now visible
func (s *Session) pageImages() (*imagecache.Cache, []string) {
	s.mu.Lock()
	cache := s.images
	s.mu.Unlock()
	if cache == nil {
		return nil, nil
	}

	page := s.directory.Current()
	ids := make([]string, 0, len(page))
	for _, r := range page {
		ids = append(ids, r.ID)
	}
	return cache, ids
}

// Close cancels background work and waits for it to stop
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// credentialChanged drops images from the previous server and re-probes.
// A probe that stays Connected fires no connected edge, so the list is
// reloaded here.
func (s *Session) credentialChanged(ctx context.Context) {
	s.mu.Lock()
	cache := s.images
	s.mu.Unlock()
	if cache != nil {
		cache.ReleaseAll()
	}

	wasConnected := s.monitor.Status() == domain.StatusConnected
	result := s.monitor.Probe(ctx)
	if wasConnected && result.Status == domain.StatusConnected {
		s.loadRecipes(ctx)
	}
}

func (s *Session) loadRecipes(ctx context.Context) error {
	err := s.directory.FetchAll(ctx)
	if errors.Is(err, domain.ErrSuperseded) {
		return err
	}

	for _, obs := range s.snapshotObservers() {
		obs.OnRecipes(err)
	}
	if err != nil {
		return err
	}

	s.logger.Info("recipe list loaded", "count", s.directory.Len())
	s.resolvePageAsync()
	return nil
}

func (s *Session) resolvePageAsync() {
	cache, ids := s.pageImages()
	if cache == nil {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		cache.ResolveAll(s.ctx, ids)
	}()
}

func (s *Session) publishStatus(status domain.ConnectionStatus, version string) {
	for _, obs := range s.snapshotObservers() {
		obs.OnStatus(status, version)
	}
}

func (s *Session) snapshotObservers() []Observer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Observer(nil), s.observers...)
}
