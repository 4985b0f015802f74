// Package credential holds the API base URL and auth token, persisted across
// sessions under fixed keys in the local state store.
package credential

import (
	"log/slog"
	"sync"

	"github.com/mmcdole/ladle/internal/domain"
)

// Keys under which the pair is persisted
const (
	KeyAPIURL   = "nextcloud-api-url"
	KeyAPIToken = "nextcloud-api-token"
)

// Backend is the persistent storage the store reads from and writes to.
// *store.KV implements it.
type Backend interface {
	GetString(key string) string
	SetMany(values map[string]string) error
	Delete(keys ...string) error
}

// Store is the single source of truth for the credential pair. One instance
// is built at startup and handed to every component that needs it.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.RWMutex
	current   domain.Credential
	listeners []func(domain.Credential)
}

var _ domain.CredentialProvider = (*Store)(nil)

// New creates a Store and loads the persisted pair
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{backend: backend, logger: logger}
	s.Load()
	return s
}

// Load re-reads the persisted pair into memory. Missing keys read as "".
func (s *Store) Load() domain.Credential {
	cred := domain.Credential{
		BaseURL: s.backend.GetString(KeyAPIURL),
		Token:   s.backend.GetString(KeyAPIToken),
	}

	s.mu.Lock()
	s.current = cred
	s.mu.Unlock()

	s.logger.Debug("loaded credential", "configured", cred.Configured())
	return cred
}

// Get returns the in-memory pair without I/O
func (s *Store) Get() domain.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save persists both fields in one transaction, then updates the in-memory
// pair and notifies listeners. On a write failure nothing changes.
func (s *Store) Save(baseURL, token string) error {
	err := s.backend.SetMany(map[string]string{
		KeyAPIURL:   baseURL,
		KeyAPIToken: token,
	})
	if err != nil {
		s.logger.Error("failed to save credential", "error", err)
		return err
	}

	cred := domain.Credential{BaseURL: baseURL, Token: token}
	s.mu.Lock()
	s.current = cred
	listeners := append([]func(domain.Credential){}, s.listeners...)
	s.mu.Unlock()

	s.logger.Info("saved credential", "url", baseURL, "configured", cred.Configured())
	for _, fn := range listeners {
		fn(cred)
	}
	return nil
}

// Clear removes the persisted pair (logout)
func (s *Store) Clear() error {
	if err := s.backend.Delete(KeyAPIURL, KeyAPIToken); err != nil {
		s.logger.Error("failed to clear credential", "error", err)
		return err
	}

	s.mu.Lock()
	s.current = domain.Credential{}
	listeners := append([]func(domain.Credential){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(domain.Credential{})
	}
	return nil
}

// OnChange registers fn to run after every successful Save or Clear
func (s *Store) OnChange(fn func(domain.Credential)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
