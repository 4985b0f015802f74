// Package connection tracks whether the cookbook server is reachable with the
// current credential.
package connection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/ladle/internal/domain"
)

// ProbeResult is the outcome of one probe
type ProbeResult struct {
	Status  domain.ConnectionStatus
	Version string
	Err     error // set only when Status is StatusError
}

// Monitor holds the tri-state connection status and the server version
type Monitor struct {
	creds   domain.CredentialProvider
	repo    domain.VersionRepository
	timeout time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	status    domain.ConnectionStatus
	version   string
	statusObs []domain.StatusObserver
	connObs   []domain.ConnectedObserver
}

// NewMonitor creates a monitor in the Disconnected state. A non-positive
// timeout leaves probes bounded only by ctx.
func NewMonitor(creds domain.CredentialProvider, repo domain.VersionRepository, timeout time.Duration, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		creds:   creds,
		repo:    repo,
		timeout: timeout,
		logger:  logger,
		status:  domain.StatusDisconnected,
	}
}

// OnStatus subscribes to every status publication
func (m *Monitor) OnStatus(obs domain.StatusObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusObs = append(m.statusObs, obs)
}

// OnConnected subscribes to the edge into Connected
func (m *Monitor) OnConnected(obs domain.ConnectedObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connObs = append(m.connObs, obs)
}

// Status returns the current status
func (m *Monitor) Status() domain.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Version returns the last reported server version ("" unless connected)
func (m *Monitor) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Probe checks the server with the current credential. It never returns an
// error; failures are reported as StatusError in the result.
func (m *Monitor) Probe(ctx context.Context) ProbeResult {
	cred := m.creds.Get()
	if !cred.Configured() {
		m.logger.Debug("probe skipped, credential incomplete")
		result := ProbeResult{Status: domain.StatusDisconnected}
		m.apply(result)
		return result
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	version, err := m.repo.Version(ctx)
	if err != nil {
		m.logger.Error("connection probe failed", "url", cred.BaseURL, "error", err)
		result := ProbeResult{
			Status: domain.StatusError,
			Err:    fmt.Errorf("%w: %w", domain.ErrConnectionFailed, err),
		}
		m.apply(result)
		return result
	}

	if version == "" {
		version = domain.UnknownVersion
	}
	m.logger.Info("connected to cookbook", "url", cred.BaseURL, "version", version)

	result := ProbeResult{Status: domain.StatusConnected, Version: version}
	m.apply(result)
	return result
}

// apply stores the result and notifies observers outside the lock
func (m *Monitor) apply(result ProbeResult) {
	m.mu.Lock()
	edge := result.Status == domain.StatusConnected && m.status != domain.StatusConnected
	m.status = result.Status
	m.version = result.Version
	statusObs := append([]domain.StatusObserver(nil), m.statusObs...)
	connObs := append([]domain.ConnectedObserver(nil), m.connObs...)
	m.mu.Unlock()

	for _, obs := range statusObs {
		obs.OnStatus(result.Status, result.Version)
	}
	if edge {
		for _, obs := range connObs {
			obs.OnConnected(result.Version)
		}
	}
}
